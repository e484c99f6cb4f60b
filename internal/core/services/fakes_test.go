package services

import (
	"context"
	"sync"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
)

// fakeRoundRepo mimics the store's document semantics: reads hand out
// copies, updates serialize under one lock.
type fakeRoundRepo struct {
	mu      sync.Mutex
	rounds  map[string]*domain.Round
	creates int
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[string]*domain.Round)}
}

func (f *fakeRoundRepo) GetByDate(_ context.Context, dateID string) (*domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	round, ok := f.rounds[dateID]
	if !ok {
		return nil, domain.ErrRoundNotFound
	}
	return cloneRound(round), nil
}

func (f *fakeRoundRepo) CreateIfAbsent(_ context.Context, round *domain.Round) (*domain.Round, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.rounds[round.DateID]; ok {
		return cloneRound(existing), false, nil
	}
	f.rounds[round.DateID] = cloneRound(round)
	f.creates++
	return cloneRound(round), true, nil
}

func (f *fakeRoundRepo) Update(_ context.Context, dateID string, fn func(*domain.Round) error) (*domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rounds[dateID]
	if !ok {
		return nil, domain.ErrRoundNotFound
	}
	working := cloneRound(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	f.rounds[dateID] = working
	return cloneRound(working), nil
}

func cloneRound(r *domain.Round) *domain.Round {
	clone := *r
	clone.Options = append([]domain.Option(nil), r.Options...)
	clone.P1Answer = cloneOption(r.P1Answer)
	clone.P1Guess = cloneOption(r.P1Guess)
	clone.P2Answer = cloneOption(r.P2Answer)
	clone.P2Guess = cloneOption(r.P2Guess)
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		clone.CompletedAt = &at
	}
	return &clone
}

func cloneOption(o *domain.OptionID) *domain.OptionID {
	if o == nil {
		return nil
	}
	v := *o
	return &v
}

type fakeSubscriberRepo struct {
	mu          sync.Mutex
	subscribers map[string]*domain.Subscriber
}

func newFakeSubscriberRepo() *fakeSubscriberRepo {
	return &fakeSubscriberRepo{subscribers: make(map[string]*domain.Subscriber)}
}

func (f *fakeSubscriberRepo) Get(_ context.Context, userID string) (*domain.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscribers[userID]
	if !ok {
		return nil, domain.ErrSubscriberNotFound
	}
	return cloneSubscriber(sub), nil
}

func (f *fakeSubscriberRepo) All(_ context.Context) ([]*domain.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := make([]*domain.Subscriber, 0, len(f.subscribers))
	for _, sub := range f.subscribers {
		subs = append(subs, cloneSubscriber(sub))
	}
	return subs, nil
}

func (f *fakeSubscriberRepo) Upsert(_ context.Context, sub *domain.Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[sub.UserID] = cloneSubscriber(sub)
	return nil
}

func (f *fakeSubscriberRepo) RemoveEndpoint(_ context.Context, userID, endpointURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscribers[userID]
	if !ok {
		return nil
	}
	sub.RemoveEndpoint(endpointURL)
	return nil
}

func cloneSubscriber(s *domain.Subscriber) *domain.Subscriber {
	clone := *s
	clone.Endpoints = append([]domain.PushEndpoint(nil), s.Endpoints...)
	if s.LegacyEndpoint != nil {
		ep := *s.LegacyEndpoint
		clone.LegacyEndpoint = &ep
	}
	return &clone
}

type partnerNudge struct {
	date      string
	partner   domain.Participant
	completed bool
}

// fakeNotifier records partner nudges. Submit fires them from a detached
// goroutine, so tests receive from nudges with a timeout.
type fakeNotifier struct {
	err    error
	nudges chan partnerNudge
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{nudges: make(chan partnerNudge, 2)}
}

func (f *fakeNotifier) SendDaily(context.Context) (*ports.DispatchReport, error) {
	return &ports.DispatchReport{}, nil
}

func (f *fakeNotifier) SendTest(context.Context, string) error {
	return nil
}

func (f *fakeNotifier) NotifyPartner(_ context.Context, date string, partner domain.Participant, completed bool) error {
	f.nudges <- partnerNudge{date: date, partner: partner, completed: completed}
	return f.err
}

// fakeSender records every delivery attempt and fails endpoints listed in
// errs.
type fakeSender struct {
	mu   sync.Mutex
	errs map[string]error
	sent []string
}

func newFakeSender() *fakeSender {
	return &fakeSender{errs: make(map[string]error)}
}

func (f *fakeSender) Send(_ context.Context, endpoint domain.PushEndpoint, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[endpoint.Endpoint]; ok {
		return err
	}
	f.sent = append(f.sent, endpoint.Endpoint)
	return nil
}

func (f *fakeSender) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}
