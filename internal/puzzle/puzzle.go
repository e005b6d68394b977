package puzzle

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var ErrEmptyCollection = errors.New("puzzle collection is empty")

// Puzzle is one tactical puzzle: a starting position plus the recorded
// solution line. The first move of Moves is the setup move played by the
// opposing side; the remaining moves are the solution proper.
type Puzzle struct {
	FEN   string
	Moves []string
}

// record is the on-disk/wire shape: the move list is a single
// space-separated string.
type record struct {
	FEN   string `json:"fen" yaml:"fen"`
	Moves string `json:"moves" yaml:"moves"`
}

// collection accepts either a bare array or a {"puzzles": [...]} wrapper.
type collection struct {
	Puzzles []record `json:"puzzles" yaml:"puzzles"`
}

func fromRecord(r record) (Puzzle, error) {
	fen := strings.TrimSpace(r.FEN)
	if fen == "" {
		return Puzzle{}, errors.New("missing fen")
	}
	if _, err := nchess.FEN(fen); err != nil {
		return Puzzle{}, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	moves := strings.Fields(r.Moves)
	if len(moves) == 0 {
		return Puzzle{}, errors.New("empty move list")
	}
	return Puzzle{FEN: fen, Moves: moves}, nil
}

// SideToMove reports which color makes the puzzle's first (setup) move.
func (p Puzzle) SideToMove() (nchess.Color, error) {
	option, err := nchess.FEN(p.FEN)
	if err != nil {
		return nchess.White, fmt.Errorf("parse fen: %w", err)
	}
	game := nchess.NewGame(option)
	return game.Position().Turn(), nil
}
