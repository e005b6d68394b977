package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Render("status.solved", nil); got != "Puzzle complete" {
		t.Fatalf("status.solved = %q", got)
	}
	if got := c.Render("nav.first", nil); got != "|<" {
		t.Fatalf("nav.first = %q", got)
	}
}

func TestRenderUnknownKeyReturnsKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Render("status.does_not_exist", nil); got != "status.does_not_exist" {
		t.Fatalf("unknown key rendered as %q", got)
	}
}

func TestOverrideDirectoryWins(t *testing.T) {
	dir := t.TempDir()
	override := "status:\n  solved: \"Done: {{.Moves}} moves\"\n"
	if err := os.WriteFile(filepath.Join(dir, "local.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := c.Render("status.solved", map[string]int{"Moves": 4})
	if got != "Done: 4 moves" {
		t.Fatalf("override render = %q", got)
	}
	// Keys the override does not touch keep their defaults.
	if got := c.Render("status.white_to_move", nil); got != "White to move" {
		t.Fatalf("default lost after override: %q", got)
	}
}

func TestOverrideDirMissingIsError(t *testing.T) {
	if _, err := New("/nonexistent/messages"); err == nil {
		t.Fatalf("expected an error for a missing override dir")
	}
}
