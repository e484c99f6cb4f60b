package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
	"github.com/sync/api/internal/core/questions"
)

const questionPreviewLen = 50

// NotificationOptions carries the presentation knobs for push payloads.
type NotificationOptions struct {
	// SiteURL is the base for deep links in notification payloads.
	SiteURL string
	// DisplayNames maps user ids to display names; unmapped ids fall back
	// to the id itself.
	DisplayNames map[string]string
	// Aliases maps each role to the userId its subscriber record is keyed
	// by. Clients register under their request userId, which is the
	// configured alias when one exists.
	Aliases map[domain.Participant]string
}

func (o NotificationOptions) displayName(userID string) string {
	if name, ok := o.DisplayNames[userID]; ok {
		return name
	}
	return userID
}

func (o NotificationOptions) subscriberID(p domain.Participant) string {
	if id, ok := o.Aliases[p]; ok && id != "" {
		return id
	}
	return string(p)
}

type pushData struct {
	URL             string `json:"url"`
	Date            string `json:"date,omitempty"`
	QuestionPreview string `json:"questionPreview,omitempty"`
}

type pushPayload struct {
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	Icon               string   `json:"icon"`
	Badge              string   `json:"badge"`
	Tag                string   `json:"tag"`
	RequireInteraction bool     `json:"requireInteraction"`
	Data               pushData `json:"data"`
}

type notificationService struct {
	subscribers ports.SubscriberRepository
	sender      ports.PushSender
	catalog     *questions.Catalog
	clock       clockwork.Clock
	opts        NotificationOptions
	logger      zerolog.Logger
}

func NewNotificationService(subscribers ports.SubscriberRepository, sender ports.PushSender, catalog *questions.Catalog, clock clockwork.Clock, opts NotificationOptions, logger zerolog.Logger) ports.NotificationService {
	return &notificationService{
		subscribers: subscribers,
		sender:      sender,
		catalog:     catalog,
		clock:       clock,
		opts:        opts,
		logger:      logger,
	}
}

// delivery is one payload bound for one endpoint of one user.
type delivery struct {
	userID   string
	endpoint domain.PushEndpoint
	payload  []byte
}

type deliveryOutcome struct {
	userID   string
	endpoint string
	err      error
}

func (s *notificationService) SendDaily(ctx context.Context) (*ports.DispatchReport, error) {
	batchID := uuid.New()
	question, date := s.catalog.Today(s.clock.Now())

	subs, err := s.subscribers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}

	var deliveries []delivery
	for _, sub := range subs {
		if !sub.NotificationsEnabled {
			continue
		}
		endpoints := sub.ActiveEndpoints()
		if len(endpoints) == 0 {
			continue
		}

		payload, err := json.Marshal(s.dailyPayload(sub.UserID, date, question))
		if err != nil {
			return nil, fmt.Errorf("failed to build payload: %w", err)
		}
		for _, ep := range endpoints {
			deliveries = append(deliveries, delivery{userID: sub.UserID, endpoint: ep, payload: payload})
		}
	}

	s.logger.Info().
		Str("batch", batchID.String()).
		Str("date", date).
		Int("endpoints", len(deliveries)).
		Msg("starting daily dispatch")

	report := &ports.DispatchReport{Date: date, Users: []string{}}
	notified := make(map[string]bool)
	for _, outcome := range s.fanOut(ctx, deliveries) {
		if outcome.err == nil {
			report.Sent++
			name := s.opts.displayName(outcome.userID)
			if !notified[name] {
				notified[name] = true
				report.Users = append(report.Users, name)
			}
			continue
		}

		report.Failed++
		s.handleFailure(ctx, batchID, outcome)
	}

	s.logger.Info().
		Str("batch", batchID.String()).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("daily dispatch finished")
	return report, nil
}

func (s *notificationService) SendTest(ctx context.Context, userID string) error {
	sub, err := s.subscribers.Get(ctx, userID)
	if errors.Is(err, domain.ErrSubscriberNotFound) {
		return domain.ErrNoSubscription
	}
	if err != nil {
		return fmt.Errorf("failed to load subscriber: %w", err)
	}

	endpoints := sub.ActiveEndpoints()
	if len(endpoints) == 0 {
		return domain.ErrNoSubscription
	}

	_, date := s.catalog.Today(s.clock.Now())
	name := s.opts.displayName(userID)
	payload, err := json.Marshal(pushPayload{
		Title: "Sync - Daily Connection",
		Body:  fmt.Sprintf("Hey %s! Today's question is ready. Let's see how well you sync!", name),
		Icon:  "/icon-192x192.png",
		Badge: "/icon-192x192.png",
		Tag:   "daily-sync-test",
		Data:  pushData{URL: s.deepLink(date, userID)},
	})
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}

	return s.sendToUser(ctx, userID, endpoints, payload)
}

func (s *notificationService) NotifyPartner(ctx context.Context, date string, partner domain.Participant, completed bool) error {
	userID := s.opts.subscriberID(partner)
	sub, err := s.subscribers.Get(ctx, userID)
	if errors.Is(err, domain.ErrSubscriberNotFound) && userID != string(partner) {
		// Subscribers registered before an alias was configured are keyed
		// by the role id.
		userID = string(partner)
		sub, err = s.subscribers.Get(ctx, userID)
	}
	if errors.Is(err, domain.ErrSubscriberNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscriber: %w", err)
	}
	if !sub.NotificationsEnabled {
		return nil
	}
	endpoints := sub.ActiveEndpoints()
	if len(endpoints) == 0 {
		return nil
	}

	name := s.opts.displayName(userID)
	payload := pushPayload{
		Icon:  "/icon-192x192.png",
		Badge: "/icon-192x192.png",
		Tag:   "sync-partner",
		Data:  pushData{URL: s.deepLink(date, userID), Date: date},
	}
	if completed {
		payload.Title = "Today's results are in!"
		payload.Body = fmt.Sprintf("Hey %s! You both answered. See how well you synced today.", name)
	} else {
		payload.Title = "Your partner answered!"
		payload.Body = fmt.Sprintf("Hey %s! Your partner finished today's question. Your turn.", name)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}

	return s.sendToUser(ctx, userID, endpoints, raw)
}

// sendToUser runs the fan-out-with-cleanup for a single user's endpoints.
// At least one successful delivery counts as success; a user whose every
// endpoint is permanently gone gets ErrEndpointGone.
func (s *notificationService) sendToUser(ctx context.Context, userID string, endpoints []domain.PushEndpoint, payload []byte) error {
	batchID := uuid.New()
	deliveries := make([]delivery, 0, len(endpoints))
	for _, ep := range endpoints {
		deliveries = append(deliveries, delivery{userID: userID, endpoint: ep, payload: payload})
	}

	sent := 0
	gone := 0
	var lastErr error
	for _, outcome := range s.fanOut(ctx, deliveries) {
		if outcome.err == nil {
			sent++
			continue
		}
		if errors.Is(outcome.err, domain.ErrEndpointGone) {
			gone++
		}
		lastErr = outcome.err
		s.handleFailure(ctx, batchID, outcome)
	}

	if sent > 0 {
		return nil
	}
	if gone == len(deliveries) {
		return domain.ErrEndpointGone
	}
	return fmt.Errorf("all deliveries failed: %w", lastErr)
}

// fanOut issues every delivery concurrently and harvests all outcomes. A
// slow or failing endpoint never blocks or aborts its siblings; the call
// returns only once every attempt has settled.
func (s *notificationService) fanOut(ctx context.Context, deliveries []delivery) []deliveryOutcome {
	var wg sync.WaitGroup
	outcomeCh := make(chan deliveryOutcome, len(deliveries))

	for _, d := range deliveries {
		wg.Add(1)
		go func(d delivery) {
			defer wg.Done()
			outcomeCh <- deliveryOutcome{
				userID:   d.userID,
				endpoint: d.endpoint.Endpoint,
				err:      s.sender.Send(ctx, d.endpoint, d.payload),
			}
		}(d)
	}

	wg.Wait()
	close(outcomeCh)

	outcomes := make([]deliveryOutcome, 0, len(deliveries))
	for o := range outcomeCh {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// handleFailure classifies a failed attempt. A permanently dead endpoint is
// pruned from the registry right away; anything else is kept and counted.
func (s *notificationService) handleFailure(ctx context.Context, batchID uuid.UUID, outcome deliveryOutcome) {
	if errors.Is(outcome.err, domain.ErrEndpointGone) {
		s.logger.Info().
			Str("batch", batchID.String()).
			Str("user", outcome.userID).
			Msg("removing expired push endpoint")
		if err := s.subscribers.RemoveEndpoint(ctx, outcome.userID, outcome.endpoint); err != nil {
			s.logger.Error().Err(err).Str("user", outcome.userID).Msg("failed to remove expired endpoint")
		}
		return
	}
	s.logger.Warn().
		Err(outcome.err).
		Str("batch", batchID.String()).
		Str("user", outcome.userID).
		Msg("push delivery failed")
}

func (s *notificationService) dailyPayload(userID, date string, question domain.Question) pushPayload {
	name := s.opts.displayName(userID)
	preview := question.Text
	if len(preview) > questionPreviewLen {
		preview = preview[:questionPreviewLen] + "..."
	}
	return pushPayload{
		Title:              "Today's Sync is Ready!",
		Body:               fmt.Sprintf("Hey %s! Time to connect with your partner. Let's see how well you sync today!", name),
		Icon:               "/icon-192x192.png",
		Badge:              "/icon-192x192.png",
		Tag:                "daily-sync",
		RequireInteraction: false,
		Data: pushData{
			URL:             s.deepLink(date, userID),
			Date:            date,
			QuestionPreview: preview,
		},
	}
}

func (s *notificationService) deepLink(date, userID string) string {
	return fmt.Sprintf("%s/daily/%s?uid=%s", s.opts.SiteURL, date, userID)
}
