package viewer

import (
	nchess "github.com/corentings/chess/v2"
)

// Standard point values. The king carries no material value.
var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   1,
	nchess.Knight: 3,
	nchess.Bishop: 3,
	nchess.Rook:   5,
	nchess.Queen:  9,
}

type MaterialScore struct {
	White int
	Black int
}

func (m MaterialScore) Diff() int {
	return m.White - m.Black
}

// MaterialReport compares the material on the board right after the setup
// move with the material after the full solution has been played out.
type MaterialReport struct {
	AfterSetup    MaterialScore
	AfterSolution MaterialScore
	WhiteDelta    int
	BlackDelta    int
}

// Trend classifies a signed differential for display styling.
func Trend(delta int) string {
	switch {
	case delta > 0:
		return "positive"
	case delta < 0:
		return "negative"
	default:
		return "neutral"
	}
}

func materialFromPosition(position *nchess.Position) MaterialScore {
	var score MaterialScore
	if position == nil {
		return score
	}
	board := position.Board()
	if board == nil {
		return score
	}
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			value := pieceValues[piece.Type()]
			if value == 0 {
				continue
			}
			if piece.Color() == nchess.White {
				score.White += value
			} else {
				score.Black += value
			}
		}
	}
	return score
}

// materialReport replays the puzzle to its two checkpoints. It is best
// effort: a replay failure yields a nil report, never an unusable session.
func materialReport(fen string, moves []string) (*MaterialReport, error) {
	if len(moves) == 0 {
		return nil, nil
	}
	setupGame, _, err := replayPrefix(fen, moves, 0)
	if err != nil {
		return nil, err
	}
	solutionGame, _, err := replayPrefix(fen, moves, len(moves)-1)
	if err != nil {
		return nil, err
	}

	report := &MaterialReport{
		AfterSetup:    materialFromPosition(setupGame.Position()),
		AfterSolution: materialFromPosition(solutionGame.Position()),
	}
	report.WhiteDelta = report.AfterSolution.White - report.AfterSetup.White
	report.BlackDelta = report.AfterSolution.Black - report.AfterSetup.Black
	return report, nil
}
