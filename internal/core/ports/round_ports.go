package ports

import (
	"context"

	"github.com/sync/api/internal/core/domain"
)

// RoundRepository is the store adapter for daily round documents, keyed by
// game date.
type RoundRepository interface {
	GetByDate(ctx context.Context, dateID string) (*domain.Round, error)

	// CreateIfAbsent persists the round unless one already exists for its
	// date. The returned round is the persisted one either way; created
	// reports whether this call won the insert.
	CreateIfAbsent(ctx context.Context, round *domain.Round) (persisted *domain.Round, created bool, err error)

	// Update applies fn to the round under the store's per-document
	// atomicity. An error from fn aborts the update and is returned
	// unchanged. Two concurrent updates of the same round serialize; the
	// second sees the first's writes.
	Update(ctx context.Context, dateID string, fn func(*domain.Round) error) (*domain.Round, error)
}

type SubmitInput struct {
	Date        string
	Participant domain.Participant
	Answer      domain.OptionID
	Guess       domain.OptionID
}

type SubmitResult struct {
	BothCompleted bool
	PointsEarned  *int
}

type RoundService interface {
	// FetchOrCreate returns the round for the date, creating it idempotently
	// on first access. created reports whether this call created it.
	FetchOrCreate(ctx context.Context, date string) (round *domain.Round, created bool, err error)

	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
}
