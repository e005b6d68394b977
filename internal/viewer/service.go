package viewer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"puzzleboard/internal/board"
	"puzzleboard/internal/domain"
	"puzzleboard/internal/puzzle"
	"puzzleboard/internal/storage"
)

var (
	ErrSessionNotFound = errors.New("viewer session not found")
	ErrSetupMove       = errors.New("setup move could not be applied")
	ErrReplay          = errors.New("solution replay stopped early")
)

// Service owns puzzle viewer sessions. Each session is a puzzle plus a
// navigation cursor; the displayed position is always the replay of
// solution moves 0..cursor from the puzzle's starting position.
type Service struct {
	store    Store
	repo     storage.Repository
	renderer board.Renderer
	puzzles  []puzzle.Puzzle
	logger   *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// SessionState is the full user-visible state of one session.
type SessionState struct {
	SessionUUID string
	PuzzleFEN   string
	Moves       []string
	MovesSAN    []string
	Cursor      int
	MoveCount   int
	FEN         string
	Turn        string
	Orientation string
	Solved      bool
	CanStart    bool
	CanPrev     bool
	CanNext     bool
	CanEnd      bool
	LastMove    *board.Highlight
	Material    *MaterialReport
	BoardImage  []byte
	StartedAt   time.Time
	UpdatedAt   time.Time
}

func NewService(store Store, repo storage.Repository, renderer board.Renderer, puzzles []puzzle.Puzzle, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("attempts repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		repo:     repo,
		renderer: renderer,
		puzzles:  append([]puzzle.Puzzle(nil), puzzles...),
		logger:   logger,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SetRandSeed makes puzzle selection deterministic. Test hook.
func (s *Service) SetRandSeed(seed int64) {
	s.randMu.Lock()
	s.rand = rand.New(rand.NewSource(seed))
	s.randMu.Unlock()
}

// NewSession picks one puzzle uniformly at random and creates a session with
// the cursor at -1 (setup move not yet played). When no puzzles are loaded
// the session falls back to the bare standard starting position so the board
// stays usable.
func (s *Service) NewSession(ctx context.Context) (*SessionState, error) {
	now := time.Now()
	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		Cursor:      -1,
		Orientation: colorName(nchess.White),
		StartedAt:   now,
		UpdatedAt:   now,
	}

	if len(s.puzzles) > 0 {
		s.randMu.Lock()
		chosen := s.puzzles[s.rand.Intn(len(s.puzzles))]
		s.randMu.Unlock()

		payload.PuzzleFEN = chosen.FEN
		payload.Moves = append([]string(nil), chosen.Moves...)

		// The side NOT making the immediate next move sits at the bottom:
		// that is the viewer's side once the setup move has been played.
		if side, err := chosen.SideToMove(); err == nil {
			payload.Orientation = colorName(side.Other())
		} else {
			s.logger.Warn("orientation fallback to white", zap.Error(err))
		}
	} else {
		s.logger.Warn("no puzzles loaded, serving standard starting position")
	}

	if err := s.store.Save(ctx, payload.SessionUUID, payload); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	game, _, err := replayPrefix(payload.PuzzleFEN, payload.Moves, payload.Cursor)
	if err != nil {
		return nil, err
	}
	return s.stateFromGame(ctx, payload, game), nil
}

// ApplySetupMove plays solution move 0 (the opposing side's setup move) and
// advances the cursor to 0. Idempotent: a session whose cursor already moved
// past -1 is returned unchanged. On failure the cursor stays at -1.
func (s *Service) ApplySetupMove(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload.Cursor != -1 || len(payload.Moves) == 0 {
		return s.stateAtCursor(ctx, payload)
	}

	game, reached, err := replayPrefix(payload.PuzzleFEN, payload.Moves, 0)
	if err != nil {
		s.logger.Warn("setup move failed",
			zap.String("session_id", payload.SessionUUID),
			zap.Error(err),
		)
		state := s.stateFromGame(ctx, payload, game)
		return state, fmt.Errorf("%w: %v", ErrSetupMove, err)
	}
	payload.Cursor = reached
	s.recordIfSolved(ctx, payload)
	s.persist(ctx, payload)
	return s.stateFromGame(ctx, payload, game), nil
}

// GoToStart rewinds to the position before any solution move, undoing the
// setup move.
func (s *Service) GoToStart(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	payload.Cursor = -1
	game, _, err := replayPrefix(payload.PuzzleFEN, payload.Moves, payload.Cursor)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, payload)
	return s.stateFromGame(ctx, payload, game), nil
}

// PreviousMove steps the cursor back one move. At -1 it is a no-op.
func (s *Service) PreviousMove(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload.Cursor <= -1 {
		return s.stateAtCursor(ctx, payload)
	}
	return s.seek(ctx, payload, payload.Cursor-1)
}

// NextMove applies the next solution move. At the last move it is a no-op.
func (s *Service) NextMove(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload.Cursor >= len(payload.Moves)-1 {
		return s.stateAtCursor(ctx, payload)
	}

	game, reached, err := replayPrefix(payload.PuzzleFEN, payload.Moves, payload.Cursor)
	if err == nil {
		// Incremental step on the rebuilt rules object.
		if pushErr := pushLenient(game, payload.Moves[payload.Cursor+1]); pushErr == nil {
			reached = payload.Cursor + 1
		} else {
			err = pushErr
		}
	}
	if err != nil {
		s.logger.Warn("next move failed, keeping last good cursor",
			zap.String("session_id", payload.SessionUUID),
			zap.Int("cursor", payload.Cursor),
			zap.Error(err),
		)
		payload.Cursor = reached
		s.persist(ctx, payload)
		state := s.stateFromGame(ctx, payload, game)
		return state, fmt.Errorf("%w: %v", ErrReplay, err)
	}

	payload.Cursor = reached
	s.recordIfSolved(ctx, payload)
	s.persist(ctx, payload)
	return s.stateFromGame(ctx, payload, game), nil
}

// GoToEnd replays the entire solution.
func (s *Service) GoToEnd(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.seek(ctx, payload, len(payload.Moves)-1)
}

// State returns the current session state without mutating it.
func (s *Service) State(ctx context.Context, id string) (*SessionState, error) {
	payload, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.stateAtCursor(ctx, payload)
}

// BoardPNG renders the current position for direct embedding.
func (s *Service) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(state.BoardImage) == 0 {
		return nil, fmt.Errorf("board image unavailable")
	}
	return state.BoardImage, nil
}

// seek replays from the starting position up to target. On a mid-replay
// failure the cursor is kept at the last index that applied cleanly; the
// same recovery applies to every navigation operation.
func (s *Service) seek(ctx context.Context, payload *sessionPayload, target int) (*SessionState, error) {
	game, reached, err := replayPrefix(payload.PuzzleFEN, payload.Moves, target)
	payload.Cursor = reached
	if err != nil {
		s.logger.Warn("replay stopped early",
			zap.String("session_id", payload.SessionUUID),
			zap.Int("target", target),
			zap.Int("reached", reached),
			zap.Error(err),
		)
		s.persist(ctx, payload)
		state := s.stateFromGame(ctx, payload, game)
		return state, fmt.Errorf("%w: %v", ErrReplay, err)
	}
	s.recordIfSolved(ctx, payload)
	s.persist(ctx, payload)
	return s.stateFromGame(ctx, payload, game), nil
}

func (s *Service) loadSession(ctx context.Context, id string) (*sessionPayload, error) {
	payload, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}
	return payload, nil
}

func (s *Service) persist(ctx context.Context, payload *sessionPayload) {
	payload.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, payload.SessionUUID, payload); err != nil {
		s.logger.Warn("persist session failed",
			zap.String("session_id", payload.SessionUUID),
			zap.Error(err),
		)
	}
}

func (s *Service) stateAtCursor(ctx context.Context, payload *sessionPayload) (*SessionState, error) {
	game, reached, err := replayPrefix(payload.PuzzleFEN, payload.Moves, payload.Cursor)
	if err != nil {
		// Stored cursor no longer replayable; clamp rather than fail.
		payload.Cursor = reached
		s.persist(ctx, payload)
	}
	return s.stateFromGame(ctx, payload, game), nil
}

func (s *Service) recordIfSolved(ctx context.Context, payload *sessionPayload) {
	if payload.Recorded || len(payload.Moves) == 0 || payload.Cursor != len(payload.Moves)-1 {
		return
	}
	now := time.Now()
	attempt := &domain.PuzzleAttempt{
		SessionUUID: payload.SessionUUID,
		PuzzleFEN:   payload.PuzzleFEN,
		MoveCount:   len(payload.Moves),
		ReachedEnd:  true,
		StartedAt:   payload.StartedAt,
		EndedAt:     now,
		Duration:    now.Sub(payload.StartedAt),
	}
	if _, err := s.repo.InsertAttempt(ctx, attempt); err != nil && !errors.Is(err, storage.ErrDuplicateAttempt) {
		s.logger.Warn("record attempt failed",
			zap.String("session_id", payload.SessionUUID),
			zap.Error(err),
		)
		return
	}
	payload.Recorded = true
}

func (s *Service) stateFromGame(ctx context.Context, payload *sessionPayload, game *nchess.Game) *SessionState {
	state := &SessionState{
		SessionUUID: payload.SessionUUID,
		PuzzleFEN:   payload.PuzzleFEN,
		Moves:       append([]string(nil), payload.Moves...),
		Cursor:      payload.Cursor,
		MoveCount:   len(payload.Moves),
		Orientation: payload.Orientation,
		StartedAt:   payload.StartedAt,
		UpdatedAt:   payload.UpdatedAt,
	}
	state.Solved = state.MoveCount > 0 && state.Cursor == state.MoveCount-1
	state.CanStart = state.Cursor > -1
	state.CanPrev = state.Cursor > -1
	state.CanNext = state.Cursor < state.MoveCount-1
	state.CanEnd = state.Cursor < state.MoveCount-1

	if game == nil {
		return state
	}

	state.FEN = game.FEN()
	state.Turn = colorName(game.Position().Turn())

	positions := game.Positions()
	moves := game.Moves()
	notation := nchess.AlgebraicNotation{}
	state.MovesSAN = make([]string, 0, len(moves))
	for i, mv := range moves {
		if i < len(positions) {
			state.MovesSAN = append(state.MovesSAN, notation.Encode(positions[i], mv))
		}
	}
	if len(moves) > 0 {
		last := moves[len(moves)-1]
		state.LastMove = &board.Highlight{From: last.S1(), To: last.S2()}
	}

	report, err := materialReport(payload.PuzzleFEN, payload.Moves)
	if err != nil {
		s.logger.Warn("material report failed",
			zap.String("session_id", payload.SessionUUID),
			zap.Error(err),
		)
	} else {
		state.Material = report
	}

	s.attachBoardImage(ctx, state, game.Position())
	return state
}

func (s *Service) attachBoardImage(ctx context.Context, state *SessionState, position *nchess.Position) {
	if position == nil {
		return
	}
	caption := fmt.Sprintf("move %d of %d", state.Cursor+1, state.MoveCount)
	if state.Cursor < 0 {
		caption = "starting position"
	}
	opts := board.Options{
		Bottom:    bottomColor(state.Orientation),
		Highlight: state.LastMove,
		Caption:   caption,
	}
	data, err := s.renderer.RenderPNG(ctx, position.Board(), opts)
	if err != nil {
		s.logger.Warn("render board image failed", zap.Error(err))
		return
	}
	state.BoardImage = data
}

func colorName(c nchess.Color) string {
	switch c {
	case nchess.White:
		return "white"
	case nchess.Black:
		return "black"
	default:
		return "white"
	}
}

func bottomColor(name string) nchess.Color {
	if name == "black" {
		return nchess.Black
	}
	return nchess.White
}
