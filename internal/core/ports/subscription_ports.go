package ports

import (
	"context"

	"github.com/sync/api/internal/core/domain"
)

type SubscriberRepository interface {
	Get(ctx context.Context, userID string) (*domain.Subscriber, error)
	All(ctx context.Context) ([]*domain.Subscriber, error)

	// Upsert writes the subscriber in the modern multi-endpoint form.
	Upsert(ctx context.Context, sub *domain.Subscriber) error

	// RemoveEndpoint atomically deletes one endpoint from the user's set.
	// Safe to call concurrently from dispatch cleanup; removing an absent
	// endpoint or user is a no-op.
	RemoveEndpoint(ctx context.Context, userID, endpointURL string) error
}

type SubscriptionService interface {
	Register(ctx context.Context, userID string, endpoint domain.PushEndpoint) error

	// Unregister removes one endpoint when given, or disables notifications
	// and clears every endpoint when endpoint is nil (legacy behavior).
	Unregister(ctx context.Context, userID string, endpoint *domain.PushEndpoint) error

	Endpoints(ctx context.Context, userID string) ([]domain.PushEndpoint, error)
}
