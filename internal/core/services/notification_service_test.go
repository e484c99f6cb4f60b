package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
	"github.com/sync/api/internal/core/questions"
)

func newNotificationService(repo ports.SubscriberRepository, sender ports.PushSender) ports.NotificationService {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	opts := NotificationOptions{
		SiteURL:      "https://sync.example",
		DisplayNames: map[string]string{"p1": "Alex", "p2": "Sam"},
	}
	return NewNotificationService(repo, sender, questions.Default(), clock, opts, zerolog.Nop())
}

func enabledSubscriber(userID string, urls ...string) *domain.Subscriber {
	sub := &domain.Subscriber{UserID: userID, NotificationsEnabled: true}
	for _, url := range urls {
		sub.AddEndpoint(endpoint(url))
	}
	return sub
}

func TestSendDailyPrunesGoneEndpoints(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p1",
		"https://push.example/valid",
		"https://push.example/gone",
		"https://push.example/valid2",
	)))

	sender := newFakeSender()
	sender.errs["https://push.example/gone"] = domain.ErrEndpointGone

	svc := newNotificationService(repo, sender)
	report, err := svc.SendDaily(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"Alex"}, report.Users)
	assert.ElementsMatch(t, []string{"https://push.example/valid", "https://push.example/valid2"}, sender.delivered())

	// Self-healing cleanup: the dead endpoint is gone, the healthy two
	// survive untouched.
	sub, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	urls := make([]string, 0, len(sub.Endpoints))
	for _, ep := range sub.Endpoints {
		urls = append(urls, ep.Endpoint)
	}
	assert.ElementsMatch(t, []string{"https://push.example/valid", "https://push.example/valid2"}, urls)
}

func TestSendDailyRetainsEndpointOnTransientFailure(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p1", "https://push.example/flaky")))

	sender := newFakeSender()
	sender.errs["https://push.example/flaky"] = errors.New("push service returned unexpected status 503")

	svc := newNotificationService(repo, sender)
	report, err := svc.SendDaily(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, report.Users)

	sub, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, sub.Endpoints, 1, "transient failures must not prune the endpoint")
}

func TestSendDailySkipsDisabledAndEmptySubscribers(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()

	disabled := enabledSubscriber("p1", "https://push.example/one")
	disabled.NotificationsEnabled = false
	require.NoError(t, repo.Upsert(ctx, disabled))
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{UserID: "p2", NotificationsEnabled: true}))

	sender := newFakeSender()
	svc := newNotificationService(repo, sender)
	report, err := svc.SendDaily(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, sender.delivered())
}

func TestSendDailyCoversBothUsersIndependently(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p1", "https://push.example/p1-dead")))
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p2", "https://push.example/p2-ok")))

	sender := newFakeSender()
	sender.errs["https://push.example/p1-dead"] = errors.New("timeout")

	svc := newNotificationService(repo, sender)
	report, err := svc.SendDaily(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"Sam"}, report.Users, "one user's failure must not block the other")
}

func TestSendDailyUsesLegacyEndpoint(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	legacy := endpoint("https://push.example/legacy")
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		UserID:               "p2",
		NotificationsEnabled: true,
		LegacyEndpoint:       &legacy,
	}))

	sender := newFakeSender()
	svc := newNotificationService(repo, sender)
	report, err := svc.SendDaily(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"https://push.example/legacy"}, sender.delivered())
}

func TestSendDailyReportsGameDate(t *testing.T) {
	repo := newFakeSubscriberRepo()
	svc := newNotificationService(repo, newFakeSender())

	report, err := svc.SendDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-06-15", report.Date)
}

func TestSendTestNoSubscription(t *testing.T) {
	repo := newFakeSubscriberRepo()
	svc := newNotificationService(repo, newFakeSender())
	ctx := context.Background()

	err := svc.SendTest(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNoSubscription)

	// A record with zero endpoints counts as unsubscribed too.
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{UserID: "p1", NotificationsEnabled: true}))
	err = svc.SendTest(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNoSubscription)
}

func TestSendTestAllEndpointsGone(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p1", "https://push.example/gone")))

	sender := newFakeSender()
	sender.errs["https://push.example/gone"] = domain.ErrEndpointGone

	svc := newNotificationService(repo, sender)
	err := svc.SendTest(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrEndpointGone)

	sub, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, sub.Endpoints, "gone endpoint must be pruned even on the test path")
}

func TestSendTestSucceedsWhenAnyEndpointDelivers(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p1",
		"https://push.example/gone",
		"https://push.example/ok",
	)))

	sender := newFakeSender()
	sender.errs["https://push.example/gone"] = domain.ErrEndpointGone

	svc := newNotificationService(repo, sender)
	require.NoError(t, svc.SendTest(ctx, "p1"))
}

func newAliasedNotificationService(repo ports.SubscriberRepository, sender ports.PushSender) ports.NotificationService {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	opts := NotificationOptions{
		SiteURL:      "https://sync.example",
		DisplayNames: map[string]string{"alex": "Alex", "sam": "Sam"},
		Aliases: map[domain.Participant]string{
			domain.ParticipantOne: "alex",
			domain.ParticipantTwo: "sam",
		},
	}
	return NewNotificationService(repo, sender, questions.Default(), clock, opts, zerolog.Nop())
}

func TestNotifyPartnerResolvesAlias(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("sam", "https://push.example/sam-phone")))

	sender := newFakeSender()
	svc := newAliasedNotificationService(repo, sender)

	require.NoError(t, svc.NotifyPartner(ctx, "2026-06-15", domain.ParticipantTwo, false))
	assert.Equal(t, []string{"https://push.example/sam-phone"}, sender.delivered())
}

func TestNotifyPartnerFallsBackToRoleID(t *testing.T) {
	// Subscribed under the role id before an alias was configured.
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p2", "https://push.example/p2-old")))

	sender := newFakeSender()
	svc := newAliasedNotificationService(repo, sender)

	require.NoError(t, svc.NotifyPartner(ctx, "2026-06-15", domain.ParticipantTwo, true))
	assert.Equal(t, []string{"https://push.example/p2-old"}, sender.delivered())
}

func TestNotifyPartner(t *testing.T) {
	repo := newFakeSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, enabledSubscriber("p2", "https://push.example/p2")))

	sender := newFakeSender()
	svc := newNotificationService(repo, sender)

	require.NoError(t, svc.NotifyPartner(ctx, "2026-06-15", domain.ParticipantTwo, false))
	require.NoError(t, svc.NotifyPartner(ctx, "2026-06-15", domain.ParticipantTwo, true))
	assert.Len(t, sender.delivered(), 2)

	// No subscriber, disabled notifications: quietly a no-op.
	require.NoError(t, svc.NotifyPartner(ctx, "2026-06-15", domain.ParticipantOne, true))
	disabled := enabledSubscriber("p1", "https://push.example/p1")
	disabled.NotificationsEnabled = false
	require.NoError(t, repo.Upsert(ctx, disabled))
	require.NoError(t, svc.NotifyPartner(ctx, "2026-06-15", domain.ParticipantOne, true))
	assert.Len(t, sender.delivered(), 2)
}
