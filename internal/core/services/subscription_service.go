package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
)

type subscriptionService struct {
	repo   ports.SubscriberRepository
	clock  clockwork.Clock
	logger zerolog.Logger
}

func NewSubscriptionService(repo ports.SubscriberRepository, clock clockwork.Clock, logger zerolog.Logger) ports.SubscriptionService {
	return &subscriptionService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

func (s *subscriptionService) Register(ctx context.Context, userID string, endpoint domain.PushEndpoint) error {
	now := s.clock.Now().UTC()

	sub, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrSubscriberNotFound) {
		sub = &domain.Subscriber{UserID: userID, CreatedAt: now}
	} else if err != nil {
		return fmt.Errorf("failed to load subscriber: %w", err)
	}

	// Writes always persist the modern set form; a lingering legacy
	// endpoint is folded into the set here.
	if sub.LegacyEndpoint != nil {
		sub.AddEndpoint(*sub.LegacyEndpoint)
		sub.LegacyEndpoint = nil
	}

	added := sub.AddEndpoint(endpoint)
	sub.NotificationsEnabled = true
	sub.UpdatedAt = now

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscriber: %w", err)
	}
	if added {
		s.logger.Info().Str("user", userID).Int("endpoints", len(sub.Endpoints)).Msg("registered push endpoint")
	}
	return nil
}

func (s *subscriptionService) Unregister(ctx context.Context, userID string, endpoint *domain.PushEndpoint) error {
	sub, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrSubscriberNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscriber: %w", err)
	}

	if endpoint == nil {
		// Legacy full unsubscribe: drop everything and disable.
		sub.Endpoints = nil
		sub.LegacyEndpoint = nil
		sub.NotificationsEnabled = false
	} else {
		if sub.LegacyEndpoint != nil {
			sub.AddEndpoint(*sub.LegacyEndpoint)
			sub.LegacyEndpoint = nil
		}
		sub.RemoveEndpoint(endpoint.Endpoint)
	}
	sub.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscriber: %w", err)
	}
	return nil
}

func (s *subscriptionService) Endpoints(ctx context.Context, userID string) ([]domain.PushEndpoint, error) {
	sub, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sub.ActiveEndpoints(), nil
}
