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

const roundColumns = `
	date_id, day_number, question_id, question_text, options,
	p1_answer, p1_guess, p1_status, p2_answer, p2_guess, p2_status,
	points_earned, status, created_at, completed_at
`

type roundRepository struct {
	db *sql.DB
}

func NewRoundRepository(db *sql.DB) ports.RoundRepository {
	return &roundRepository{
		db: db,
	}
}

func (r *roundRepository) GetByDate(ctx context.Context, dateID string) (*domain.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM daily_rounds WHERE date_id = $1`
	round, err := scanRound(r.db.QueryRowContext(ctx, query, dateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

func (r *roundRepository) CreateIfAbsent(ctx context.Context, round *domain.Round) (*domain.Round, bool, error) {
	options, err := json.Marshal(round.Options)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode options: %w", err)
	}

	query := `
		INSERT INTO daily_rounds (date_id, day_number, question_id, question_text, options, points_earned, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		round.DateID, round.DayNumber, round.QuestionID, round.QuestionText,
		options, round.PointsEarned, round.Status, round.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert round: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if inserted == 1 {
		return round, true, nil
	}

	// Lost the race; another caller created this date first. Their
	// document is the round.
	existing, err := r.GetByDate(ctx, round.DateID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *roundRepository) Update(ctx context.Context, dateID string, fn func(*domain.Round) error) (*domain.Round, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Row lock serializes concurrent submissions on the same round; the
	// second caller observes the first's writes before fn runs.
	query := `SELECT ` + roundColumns + ` FROM daily_rounds WHERE date_id = $1 FOR UPDATE`
	round, err := scanRound(tx.QueryRowContext(ctx, query, dateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to lock round: %w", err)
	}

	if err := fn(round); err != nil {
		return nil, err
	}

	update := `
		UPDATE daily_rounds
		SET p1_answer = $2, p1_guess = $3, p1_status = $4,
		    p2_answer = $5, p2_guess = $6, p2_status = $7,
		    points_earned = $8, status = $9, completed_at = $10
		WHERE date_id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		dateID,
		optionValue(round.P1Answer), optionValue(round.P1Guess), round.P1Status,
		optionValue(round.P2Answer), optionValue(round.P2Guess), round.P2Status,
		round.PointsEarned, round.Status, round.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update round: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return round, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*domain.Round, error) {
	var (
		round    domain.Round
		options  []byte
		p1Answer sql.NullString
		p1Guess  sql.NullString
		p2Answer sql.NullString
		p2Guess  sql.NullString
	)
	err := row.Scan(
		&round.DateID, &round.DayNumber, &round.QuestionID, &round.QuestionText, &options,
		&p1Answer, &p1Guess, &round.P1Status, &p2Answer, &p2Guess, &round.P2Status,
		&round.PointsEarned, &round.Status, &round.CreatedAt, &round.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(options, &round.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	round.P1Answer = optionFromNull(p1Answer)
	round.P1Guess = optionFromNull(p1Guess)
	round.P2Answer = optionFromNull(p2Answer)
	round.P2Guess = optionFromNull(p2Guess)
	return &round, nil
}

func optionFromNull(v sql.NullString) *domain.OptionID {
	if !v.Valid {
		return nil
	}
	opt := domain.OptionID(v.String)
	return &opt
}

func optionValue(opt *domain.OptionID) any {
	if opt == nil {
		return nil
	}
	return string(*opt)
}
