package ports

import (
	"context"

	"github.com/sync/api/internal/core/domain"
)

// PushSender delivers one payload to one endpoint. Implementations report
// a permanently dead endpoint by returning an error wrapping
// domain.ErrEndpointGone; any other error is treated as transient.
type PushSender interface {
	Send(ctx context.Context, endpoint domain.PushEndpoint, payload []byte) error
}

// DispatchReport aggregates the outcome of a notification fan-out.
type DispatchReport struct {
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Users  []string `json:"users"`
	Date   string   `json:"date"`
}

type NotificationService interface {
	// SendDaily notifies every subscriber with notifications enabled about
	// today's round, across all of their endpoints. Delivery failures are
	// counted, never propagated.
	SendDaily(ctx context.Context) (*DispatchReport, error)

	// SendTest delivers a verification notification to one user.
	SendTest(ctx context.Context, userID string) error

	// NotifyPartner nudges the given participant about the other's
	// submission: a reminder while the round is pending, the results when
	// it completed. Best effort.
	NotifyPartner(ctx context.Context, date string, partner domain.Participant, completed bool) error
}
