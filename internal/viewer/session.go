package viewer

import (
	"context"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
)

// sessionPayload is the persisted form of one viewer session. Everything the
// navigation operations need is reconstructible from it: the displayed
// position is always the replay of Moves[0..Cursor] from PuzzleFEN.
type sessionPayload struct {
	SessionUUID string    `json:"session_uuid"`
	PuzzleFEN   string    `json:"puzzle_fen"`
	Moves       []string  `json:"moves"`
	Cursor      int       `json:"cursor"`
	Orientation string    `json:"orientation"`
	Recorded    bool      `json:"recorded,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists session payloads with a TTL.
type Store interface {
	Save(ctx context.Context, id string, payload *sessionPayload) error
	Load(ctx context.Context, id string) (*sessionPayload, error)
	Delete(ctx context.Context, id string) error
}

// gameFromFEN builds a fresh rules object from a position string. An empty
// FEN (or "startpos") yields the standard starting position.
func gameFromFEN(fen string) (*nchess.Game, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return nchess.NewGame(), nil
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return nchess.NewGame(option), nil
}

// pushLenient applies one recorded move, accepting UCI first and falling
// back to algebraic notation so slightly sloppy collections still replay.
func pushLenient(game *nchess.Game, mv string) error {
	mv = strings.TrimSpace(mv)
	if mv == "" {
		return fmt.Errorf("empty move")
	}
	if err := game.PushNotationMove(strings.ToLower(mv), nchess.UCINotation{}, nil); err == nil {
		return nil
	}
	if err := game.PushNotationMove(mv, nchess.AlgebraicNotation{}, nil); err != nil {
		return fmt.Errorf("apply move %q: %w", mv, err)
	}
	return nil
}

// replayPrefix rebuilds the position after moves[0..cursor]. A cursor of -1
// returns the untouched starting position. On a mid-replay failure it stops
// and returns the game advanced through the last move that applied cleanly,
// together with that move's index; callers keep the cursor there so the
// display never diverges from the rules object.
func replayPrefix(fen string, moves []string, cursor int) (*nchess.Game, int, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return nil, -1, err
	}
	if cursor >= len(moves) {
		cursor = len(moves) - 1
	}
	for i := 0; i <= cursor; i++ {
		if err := pushLenient(game, moves[i]); err != nil {
			return game, i - 1, err
		}
	}
	return game, cursor, nil
}
