package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
	"github.com/sync/api/internal/core/questions"
)

// partnerNotifyTimeout bounds the best-effort nudge fired after a
// submission; it runs detached from the request context.
const partnerNotifyTimeout = 15 * time.Second

type roundService struct {
	repo     ports.RoundRepository
	catalog  *questions.Catalog
	clock    clockwork.Clock
	notifier ports.NotificationService
	logger   zerolog.Logger
}

// NewRoundService builds the round lifecycle engine. notifier may be nil,
// in which case submissions do not trigger partner nudges.
func NewRoundService(repo ports.RoundRepository, catalog *questions.Catalog, clock clockwork.Clock, notifier ports.NotificationService, logger zerolog.Logger) ports.RoundService {
	return &roundService{
		repo:     repo,
		catalog:  catalog,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *roundService) FetchOrCreate(ctx context.Context, date string) (*domain.Round, bool, error) {
	question, dayNumber, err := s.catalog.ForDate(date)
	if err != nil {
		return nil, false, err
	}

	round, err := s.repo.GetByDate(ctx, date)
	if err == nil {
		return round, false, nil
	}
	if !errors.Is(err, domain.ErrRoundNotFound) {
		return nil, false, fmt.Errorf("failed to fetch round: %w", err)
	}

	newRound := &domain.Round{
		DateID:       date,
		DayNumber:    dayNumber,
		QuestionID:   question.ID,
		QuestionText: question.Text,
		Options:      question.Options,
		PointsEarned: 0,
		Status:       domain.RoundPending,
		CreatedAt:    s.clock.Now().UTC(),
	}

	// Concurrent first access races on the same key; the loser of the
	// insert gets the winner's document back.
	persisted, created, err := s.repo.CreateIfAbsent(ctx, newRound)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create round: %w", err)
	}
	if created {
		s.logger.Info().Str("date", date).Int("question_id", question.ID).Msg("created daily round")
	}
	return persisted, created, nil
}

func (s *roundService) Submit(ctx context.Context, input ports.SubmitInput) (*ports.SubmitResult, error) {
	if !input.Participant.Valid() {
		return nil, domain.ErrInvalidParticipant
	}
	if !input.Answer.Valid() || !input.Guess.Valid() {
		return nil, domain.ErrInvalidOption
	}

	round, err := s.repo.Update(ctx, input.Date, func(r *domain.Round) error {
		if r.Submitted(input.Participant) {
			return domain.ErrAlreadySubmitted
		}
		r.SetSubmission(input.Participant, input.Answer, input.Guess)

		if r.Submitted(input.Participant.Other()) {
			r.PointsEarned = r.Score()
			r.Status = domain.RoundCompleted
			completedAt := s.clock.Now().UTC()
			r.CompletedAt = &completedAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ports.SubmitResult{}
	if round.Status == domain.RoundCompleted {
		result.BothCompleted = true
		points := round.PointsEarned
		result.PointsEarned = &points
		s.logger.Info().Str("date", input.Date).Int("points", points).Msg("round completed")
	}

	s.nudgePartner(input.Date, input.Participant.Other(), result.BothCompleted)

	return result, nil
}

// nudgePartner fires the out-of-band partner notification for a successful
// submission. Delivery problems are logged, never surfaced to the submitter.
func (s *roundService) nudgePartner(date string, partner domain.Participant, completed bool) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), partnerNotifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyPartner(ctx, date, partner, completed); err != nil {
			s.logger.Warn().Err(err).Str("date", date).Str("partner", string(partner)).Msg("partner nudge failed")
		}
	}()
}
