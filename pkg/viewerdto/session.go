package viewerdto

import "time"

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// MaterialReport carries the analysis panel values: totals right after the
// setup move, totals after the full solution, and per-side signed deltas
// with their display trend ("positive", "negative" or "neutral").
type MaterialReport struct {
	AfterSetup    MaterialScore `json:"afterSetup"`
	AfterSolution MaterialScore `json:"afterSolution"`
	WhiteDelta    int           `json:"whiteDelta"`
	BlackDelta    int           `json:"blackDelta"`
	WhiteTrend    string        `json:"whiteTrend"`
	BlackTrend    string        `json:"blackTrend"`
}

type SessionState struct {
	SessionUUID string          `json:"sessionUuid"`
	PuzzleFEN   string          `json:"puzzleFen"`
	FEN         string          `json:"fen"`
	Turn        string          `json:"turn"`
	Orientation string          `json:"orientation"`
	Cursor      int             `json:"cursor"`
	MoveCount   int             `json:"moveCount"`
	MovesSAN    []string        `json:"movesSan,omitempty"`
	Solved      bool            `json:"solved"`
	Status      string          `json:"status"`
	CanStart    bool            `json:"canStart"`
	CanPrev     bool            `json:"canPrev"`
	CanNext     bool            `json:"canNext"`
	CanEnd      bool            `json:"canEnd"`
	Material    *MaterialReport `json:"material,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
