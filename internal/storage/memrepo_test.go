package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"puzzleboard/internal/domain"
)

func TestMemoryRepositoryInsertAndFetch(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, uuid := range []string{"a", "b", "c"} {
		id, err := repo.InsertAttempt(ctx, &domain.PuzzleAttempt{
			SessionUUID: uuid,
			PuzzleFEN:   "8/8/8/8/8/8/8/K6k w - - 0 1",
			MoveCount:   3,
			ReachedEnd:  true,
			StartedAt:   base,
			EndedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertAttempt %s: %v", uuid, err)
		}
		if id == 0 {
			t.Fatalf("expected a non-zero id for %s", uuid)
		}
	}

	attempts, err := repo.GetRecentAttempts(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(attempts))
	}
	if attempts[0].SessionUUID != "c" || attempts[1].SessionUUID != "b" {
		t.Fatalf("expected newest first, got %s then %s", attempts[0].SessionUUID, attempts[1].SessionUUID)
	}
}

func TestMemoryRepositoryRejectsDuplicateSession(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	attempt := &domain.PuzzleAttempt{SessionUUID: "dup", EndedAt: time.Now()}

	if _, err := repo.InsertAttempt(ctx, attempt); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := repo.InsertAttempt(ctx, attempt); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("expected ErrDuplicateAttempt, got %v", err)
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if _, err := repo.InsertAttempt(ctx, &domain.PuzzleAttempt{SessionUUID: "x", MoveCount: 5}); err != nil {
		t.Fatalf("InsertAttempt: %v", err)
	}

	first, err := repo.GetRecentAttempts(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecentAttempts: %v", err)
	}
	first[0].MoveCount = 99

	second, err := repo.GetRecentAttempts(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecentAttempts #2: %v", err)
	}
	if second[0].MoveCount != 5 {
		t.Fatalf("stored attempt mutated through a returned pointer")
	}
}
