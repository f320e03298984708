package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists quota counters in the user_quotas table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ensure(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_quotas (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("ensuring user quota: %w", err)
	}
	return nil
}

// Get returns the user's quota row joined with the user's role, creating a
// zeroed row if none exists.
func (s *PostgresStore) Get(ctx context.Context, userID uuid.UUID) (*UserQuota, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return nil, err
	}

	var q UserQuota
	err := s.pool.QueryRow(ctx,
		`SELECT q.user_id, u.role,
		        q.daily_date, q.daily_tokens_used, q.daily_request_count,
		        q.monthly_month, q.monthly_tokens_used, q.monthly_request_count,
		        q.total_tokens_used, q.total_requests, q.updated_at
		 FROM user_quotas q
		 JOIN users u ON u.id = q.user_id
		 WHERE q.user_id = $1`, userID,
	).Scan(&q.UserID, &q.Role,
		&q.Daily.Date, &q.Daily.TokensUsed, &q.Daily.RequestCount,
		&q.Monthly.Month, &q.Monthly.TokensUsed, &q.Monthly.RequestCount,
		&q.TotalTokensUsed, &q.TotalRequests, &q.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("fetching user quota: %w", err)
	}
	return &q, nil
}

// Commit applies the lazy rollover and the increments as a single UPDATE so
// that concurrent commits for the same user serialize on the row lock and
// never lose an update.
func (s *PostgresStore) Commit(ctx context.Context, userID uuid.UUID, tokens int, now time.Time) (*UserQuota, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return nil, err
	}

	day := DateKey(now)
	month := MonthKey(now)

	var q UserQuota
	err := s.pool.QueryRow(ctx,
		`UPDATE user_quotas q SET
		    daily_tokens_used     = CASE WHEN q.daily_date = $2 THEN q.daily_tokens_used + $4 ELSE $4 END,
		    daily_request_count   = CASE WHEN q.daily_date = $2 THEN q.daily_request_count + 1 ELSE 1 END,
		    daily_date            = $2,
		    monthly_tokens_used   = CASE WHEN q.monthly_month = $3 THEN q.monthly_tokens_used + $4 ELSE $4 END,
		    monthly_request_count = CASE WHEN q.monthly_month = $3 THEN q.monthly_request_count + 1 ELSE 1 END,
		    monthly_month         = $3,
		    total_tokens_used     = q.total_tokens_used + $4,
		    total_requests        = q.total_requests + 1,
		    updated_at            = NOW()
		 FROM users u
		 WHERE q.user_id = $1 AND u.id = q.user_id
		 RETURNING q.user_id, u.role,
		           q.daily_date, q.daily_tokens_used, q.daily_request_count,
		           q.monthly_month, q.monthly_tokens_used, q.monthly_request_count,
		           q.total_tokens_used, q.total_requests, q.updated_at`,
		userID, day, month, tokens,
	).Scan(&q.UserID, &q.Role,
		&q.Daily.Date, &q.Daily.TokensUsed, &q.Daily.RequestCount,
		&q.Monthly.Month, &q.Monthly.TokensUsed, &q.Monthly.RequestCount,
		&q.TotalTokensUsed, &q.TotalRequests, &q.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("committing quota usage: %w", err)
	}
	return &q, nil
}
