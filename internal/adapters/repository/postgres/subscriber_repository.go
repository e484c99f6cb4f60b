package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
)

type subscriberRepository struct {
	db *sql.DB
}

func NewSubscriberRepository(db *sql.DB) ports.SubscriberRepository {
	return &subscriberRepository{
		db: db,
	}
}

func (r *subscriberRepository) Get(ctx context.Context, userID string) (*domain.Subscriber, error) {
	query := `
		SELECT user_id, notifications_enabled, subscriptions, push_subscription, created_at, updated_at
		FROM subscribers
		WHERE user_id = $1
	`
	sub, err := scanSubscriber(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return sub, nil
}

func (r *subscriberRepository) All(ctx context.Context) ([]*domain.Subscriber, error) {
	query := `
		SELECT user_id, notifications_enabled, subscriptions, push_subscription, created_at, updated_at
		FROM subscribers
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}
	return subs, nil
}

func (r *subscriberRepository) Upsert(ctx context.Context, sub *domain.Subscriber) error {
	endpoints, err := json.Marshal(sub.Endpoints)
	if err != nil {
		return fmt.Errorf("failed to encode endpoints: %w", err)
	}
	if sub.Endpoints == nil {
		endpoints = []byte("[]")
	}

	var legacy any
	if sub.LegacyEndpoint != nil {
		raw, err := json.Marshal(sub.LegacyEndpoint)
		if err != nil {
			return fmt.Errorf("failed to encode legacy endpoint: %w", err)
		}
		legacy = raw
	}

	query := `
		INSERT INTO subscribers (user_id, notifications_enabled, subscriptions, push_subscription, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET notifications_enabled = EXCLUDED.notifications_enabled,
		    subscriptions = EXCLUDED.subscriptions,
		    push_subscription = EXCLUDED.push_subscription,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		sub.UserID, sub.NotificationsEnabled, endpoints, legacy, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}

func (r *subscriberRepository) RemoveEndpoint(ctx context.Context, userID, endpointURL string) error {
	// Single statement so dispatch cleanup cannot clobber a concurrent
	// register's write of the remaining endpoints.
	query := `
		UPDATE subscribers
		SET subscriptions = COALESCE(
		        (SELECT jsonb_agg(elem)
		         FROM jsonb_array_elements(subscriptions) elem
		         WHERE elem->>'endpoint' <> $2),
		        '[]'::jsonb),
		    push_subscription = CASE
		        WHEN push_subscription->>'endpoint' = $2 THEN NULL
		        ELSE push_subscription
		    END,
		    updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, endpointURL); err != nil {
		return fmt.Errorf("failed to remove endpoint: %w", err)
	}
	return nil
}

func scanSubscriber(row rowScanner) (*domain.Subscriber, error) {
	var (
		sub       domain.Subscriber
		endpoints []byte
		legacy    []byte
	)
	err := row.Scan(&sub.UserID, &sub.NotificationsEnabled, &endpoints, &legacy, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(endpoints, &sub.Endpoints); err != nil {
		return nil, fmt.Errorf("failed to decode endpoints: %w", err)
	}
	if legacy != nil {
		var ep domain.PushEndpoint
		if err := json.Unmarshal(legacy, &ep); err != nil {
			return nil, fmt.Errorf("failed to decode legacy endpoint: %w", err)
		}
		sub.LegacyEndpoint = &ep
	}
	return &sub, nil
}
