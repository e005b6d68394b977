package viewer

import (
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func TestMaterialFromStartingPosition(t *testing.T) {
	score := materialFromPosition(nchess.NewGame().Position())
	if score.White != 39 || score.Black != 39 {
		t.Fatalf("expected 39/39 points, got %d/%d", score.White, score.Black)
	}
	if score.Diff() != 0 {
		t.Fatalf("expected balanced material, diff %d", score.Diff())
	}
}

func TestMaterialReportTracksCapture(t *testing.T) {
	// Black opens, white pushes a pawn, black captures it.
	report, err := materialReport(testPuzzle.FEN, testPuzzle.Moves)
	if err != nil {
		t.Fatalf("materialReport: %v", err)
	}
	if report == nil {
		t.Fatalf("expected a material report")
	}
	if report.AfterSetup.White != 39 || report.AfterSetup.Black != 39 {
		t.Fatalf("after setup: %d/%d", report.AfterSetup.White, report.AfterSetup.Black)
	}
	if report.AfterSolution.White != 38 || report.AfterSolution.Black != 39 {
		t.Fatalf("after solution: %d/%d", report.AfterSolution.White, report.AfterSolution.Black)
	}
	if report.WhiteDelta != -1 || report.BlackDelta != 0 {
		t.Fatalf("deltas: white %d black %d", report.WhiteDelta, report.BlackDelta)
	}
}

func TestMaterialReportNilOnBrokenLine(t *testing.T) {
	report, err := materialReport(testPuzzle.FEN, []string{"zz99"})
	if err == nil {
		t.Fatalf("expected an error for an unplayable line")
	}
	if report != nil {
		t.Fatalf("expected nil report, got %+v", report)
	}
}

func TestTrend(t *testing.T) {
	if got := Trend(3); got != "positive" {
		t.Fatalf("Trend(3) = %q", got)
	}
	if got := Trend(-1); got != "negative" {
		t.Fatalf("Trend(-1) = %q", got)
	}
	if got := Trend(0); got != "neutral" {
		t.Fatalf("Trend(0) = %q", got)
	}
}
