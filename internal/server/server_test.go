package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"puzzleboard/internal/board"
	"puzzleboard/internal/msgcat"
	"puzzleboard/internal/puzzle"
	"puzzleboard/internal/storage"
	"puzzleboard/internal/viewer"
	"puzzleboard/pkg/viewerdto"
)

var testPuzzle = puzzle.Puzzle{
	FEN:   "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1",
	Moves: []string{"e7e5", "d2d4", "e5d4"},
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := viewer.NewMemoryStore(time.Hour)
	svc, err := viewer.NewService(store, storage.NewMemoryRepository(), board.NewPNGRenderer(), []puzzle.Puzzle{testPuzzle}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	catalog, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	// A far-future setup delay keeps the scheduled setup move from racing
	// the test; navigation is driven explicitly through the API instead.
	return NewHandler(svc, nil, catalog, time.Hour, nil)
}

type sessionEnvelope struct {
	Session      *viewerdto.SessionState `json:"session"`
	SetupDelayMs int64                   `json:"setupDelayMs"`
}

func createSession(t *testing.T, mux *http.ServeMux) *viewerdto.SessionState {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/session: status %d body %s", rec.Code, rec.Body.String())
	}
	var env sessionEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode session envelope: %v", err)
	}
	if env.Session == nil || env.Session.SessionUUID == "" {
		t.Fatalf("missing session in response: %s", rec.Body.String())
	}
	return env.Session
}

func navigate(t *testing.T, mux *http.ServeMux, id, op string) *viewerdto.SessionState {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/"+id+"/nav/"+op, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("nav %s: status %d body %s", op, rec.Code, rec.Body.String())
	}
	var dto viewerdto.SessionState
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode nav response: %v", err)
	}
	return &dto
}

func TestHealthz(t *testing.T) {
	mux := newTestHandler(t).Routes()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz: status %d", rec.Code)
	}
}

func TestCreateSessionAndNavigate(t *testing.T) {
	mux := newTestHandler(t).Routes()

	session := createSession(t, mux)
	if session.Cursor != -1 {
		t.Fatalf("fresh session cursor %d", session.Cursor)
	}
	if session.Orientation != "white" {
		t.Fatalf("orientation %q", session.Orientation)
	}

	state := navigate(t, mux, session.SessionUUID, "end")
	if state.Cursor != len(testPuzzle.Moves)-1 {
		t.Fatalf("after end: cursor %d", state.Cursor)
	}
	if !state.Solved {
		t.Fatalf("expected solved at the last move")
	}
	if state.Material == nil {
		t.Fatalf("expected a material report")
	}
	if state.Material.BlackTrend != "neutral" || state.Material.WhiteTrend != "negative" {
		t.Fatalf("trends: white %q black %q", state.Material.WhiteTrend, state.Material.BlackTrend)
	}
	if state.CanNext || state.CanEnd {
		t.Fatalf("next/end should be disabled at the last move")
	}

	state = navigate(t, mux, session.SessionUUID, "start")
	if state.Cursor != -1 {
		t.Fatalf("after start: cursor %d", state.Cursor)
	}
	if state.CanStart || state.CanPrev {
		t.Fatalf("start/prev should be disabled at cursor -1")
	}
}

func TestNavUnknownOperation(t *testing.T) {
	mux := newTestHandler(t).Routes()
	session := createSession(t, mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/"+session.SessionUUID+"/nav/sideways", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown op: status %d", rec.Code)
	}
}

func TestStateUnknownSession(t *testing.T) {
	mux := newTestHandler(t).Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: status %d", rec.Code)
	}
	var derr viewerdto.DomainError
	if err := json.Unmarshal(rec.Body.Bytes(), &derr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if derr.Code != viewerdto.CodeSessionNotFound {
		t.Fatalf("error code %q", derr.Code)
	}
}

func TestBoardImageEndpoint(t *testing.T) {
	mux := newTestHandler(t).Routes()
	session := createSession(t, mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+session.SessionUUID+"/board.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("board.png: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("response is not a png")
	}
}

func TestWatchSocketUnavailableWithoutDriver(t *testing.T) {
	mux := newTestHandler(t).Routes()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/watch", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ws without driver: status %d", rec.Code)
	}
}

func TestIndexAndWatchPages(t *testing.T) {
	mux := newTestHandler(t).Routes()
	for _, path := range []string{"/", "/watch"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Fatalf("GET %s: content type %q", path, ct)
		}
	}
}
