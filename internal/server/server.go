package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"puzzleboard/internal/autoplay"
	"puzzleboard/internal/msgcat"
	"puzzleboard/internal/viewer"
	"puzzleboard/pkg/viewerdto"
)

//go:embed static/index.html static/watch.html
var staticFiles embed.FS

type Handler struct {
	svc        *viewer.Service
	driver     *autoplay.Driver
	catalog    *msgcat.Catalog
	setupDelay time.Duration
	logger     *zap.Logger
}

func NewHandler(svc *viewer.Service, driver *autoplay.Driver, catalog *msgcat.Catalog, setupDelay time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:        svc,
		driver:     driver,
		catalog:    catalog,
		setupDelay: setupDelay,
		logger:     logger,
	}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /api/session", h.handleNewSession)
	mux.HandleFunc("GET /api/session/{id}", h.handleState)
	mux.HandleFunc("POST /api/session/{id}/nav/{op}", h.handleNav)
	mux.HandleFunc("GET /api/session/{id}/board.png", h.handleBoardPNG)
	mux.HandleFunc("GET /ws/watch", h.handleWatchSocket)
	mux.HandleFunc("GET /watch", h.servePage("static/watch.html"))
	mux.HandleFunc("GET /{$}", h.servePage("static/index.html"))
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleNewSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.NewSession(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	// The setup move is played for the viewer after a short display delay,
	// exactly once per session. A failure leaves the cursor at -1; the
	// session stays usable either way.
	id := state.SessionUUID
	time.AfterFunc(h.setupDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := h.svc.ApplySetupMove(ctx, id); err != nil {
			h.logger.Warn("scheduled setup move failed",
				zap.String("session_id", id),
				zap.Error(err),
			)
		}
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"session":      h.toDTO(state),
		"setupDelayMs": h.setupDelay.Milliseconds(),
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.State(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toDTO(state))
}

func (h *Handler) handleNav(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		state *viewer.SessionState
		err   error
	)
	switch r.PathValue("op") {
	case "start":
		state, err = h.svc.GoToStart(r.Context(), id)
	case "prev":
		state, err = h.svc.PreviousMove(r.Context(), id)
	case "next":
		state, err = h.svc.NextMove(r.Context(), id)
	case "end":
		state, err = h.svc.GoToEnd(r.Context(), id)
	default:
		writeJSON(w, http.StatusNotFound, viewerdto.DomainError{Code: viewerdto.CodeInternal, Message: "unknown navigation operation"})
		return
	}
	if err != nil && state == nil {
		h.writeError(w, err)
		return
	}
	// A replay failure still yields a consistent state at the last good
	// cursor; report it alongside the state instead of dropping the board.
	dto := h.toDTO(state)
	if err != nil {
		dto.Status = h.catalog.Render("status.replay_error", nil)
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.BoardPNG(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (h *Handler) servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := staticFiles.ReadFile(name)
		if err != nil {
			http.Error(w, "page unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}
}

func (h *Handler) statusText(state *viewer.SessionState) string {
	switch {
	case state.MoveCount == 0:
		return h.catalog.Render("status.no_puzzle", nil)
	case state.Cursor < 0:
		return h.catalog.Render("status.setup_pending", nil)
	case state.Solved:
		return h.catalog.Render("status.solved", nil)
	case state.Turn == "black":
		return h.catalog.Render("status.black_to_move", nil)
	default:
		return h.catalog.Render("status.white_to_move", nil)
	}
}

func (h *Handler) toDTO(state *viewer.SessionState) *viewerdto.SessionState {
	dto := &viewerdto.SessionState{
		SessionUUID: state.SessionUUID,
		PuzzleFEN:   state.PuzzleFEN,
		FEN:         state.FEN,
		Turn:        state.Turn,
		Orientation: state.Orientation,
		Cursor:      state.Cursor,
		MoveCount:   state.MoveCount,
		MovesSAN:    state.MovesSAN,
		Solved:      state.Solved,
		Status:      h.statusText(state),
		CanStart:    state.CanStart,
		CanPrev:     state.CanPrev,
		CanNext:     state.CanNext,
		CanEnd:      state.CanEnd,
		StartedAt:   state.StartedAt,
		UpdatedAt:   state.UpdatedAt,
	}
	if state.Material != nil {
		dto.Material = &viewerdto.MaterialReport{
			AfterSetup:    viewerdto.MaterialScore{White: state.Material.AfterSetup.White, Black: state.Material.AfterSetup.Black},
			AfterSolution: viewerdto.MaterialScore{White: state.Material.AfterSolution.White, Black: state.Material.AfterSolution.Black},
			WhiteDelta:    state.Material.WhiteDelta,
			BlackDelta:    state.Material.BlackDelta,
			WhiteTrend:    viewer.Trend(state.Material.WhiteDelta),
			BlackTrend:    viewer.Trend(state.Material.BlackDelta),
		}
	}
	return dto
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, viewer.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, viewerdto.DomainError{Code: viewerdto.CodeSessionNotFound, Message: "session not found"})
	case errors.Is(err, viewer.ErrSetupMove):
		writeJSON(w, http.StatusConflict, viewerdto.DomainError{Code: viewerdto.CodeSetupMove, Message: err.Error()})
	case errors.Is(err, viewer.ErrReplay):
		writeJSON(w, http.StatusConflict, viewerdto.DomainError{Code: viewerdto.CodeReplay, Message: err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, viewerdto.DomainError{Code: viewerdto.CodeInternal, Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
