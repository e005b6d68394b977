package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"puzzleboard/internal/domain"
)

var ErrDuplicateAttempt = errors.New("puzzle attempt already recorded")

type Repository interface {
	InsertAttempt(ctx context.Context, attempt *domain.PuzzleAttempt) (int64, error)
	GetRecentAttempts(ctx context.Context, limit int) ([]*domain.PuzzleAttempt, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertAttempt(ctx context.Context, attempt *domain.PuzzleAttempt) (int64, error) {
	if attempt == nil {
		return 0, fmt.Errorf("nil puzzle attempt payload")
	}

	const query = `
		INSERT INTO puzzle_attempts (
			session_uuid,
			puzzle_fen,
			move_count,
			reached_end,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err := r.db.QueryRowContext(
		ctx,
		query,
		attempt.SessionUUID,
		attempt.PuzzleFEN,
		attempt.MoveCount,
		attempt.ReachedEnd,
		attempt.StartedAt,
		attempt.EndedAt,
		attempt.Duration.Milliseconds(),
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateAttempt
	}
	if err != nil {
		return 0, fmt.Errorf("insert puzzle attempt: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentAttempts(ctx context.Context, limit int) ([]*domain.PuzzleAttempt, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id,
			session_uuid,
			puzzle_fen,
			move_count,
			reached_end,
			started_at,
			ended_at,
			duration_ms
		FROM puzzle_attempts
		ORDER BY ended_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select puzzle attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*domain.PuzzleAttempt, 0, limit)
	for rows.Next() {
		var (
			attempt    domain.PuzzleAttempt
			durationMS sql.NullInt64
		)
		if err := rows.Scan(
			&attempt.ID,
			&attempt.SessionUUID,
			&attempt.PuzzleFEN,
			&attempt.MoveCount,
			&attempt.ReachedEnd,
			&attempt.StartedAt,
			&attempt.EndedAt,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan puzzle attempt: %w", err)
		}
		if durationMS.Valid {
			attempt.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		}
		attempts = append(attempts, &attempt)
	}
	return attempts, rows.Err()
}
