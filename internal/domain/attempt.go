package domain

import "time"

// PuzzleAttempt is one completed walkthrough of a puzzle session.
type PuzzleAttempt struct {
	ID          int64
	SessionUUID string
	PuzzleFEN   string
	MoveCount   int
	ReachedEnd  bool
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}
