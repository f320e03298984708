package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service is the authoritative source of whether a user may spend more
// tokens, and the bookkeeping of actual spend. It never denies by itself:
// the assistant gateway decides using Remaining before calling the provider.
type Service struct {
	store Store
}

// NewService creates a quota Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Snapshot returns the user's current quota row. The snapshot may be stale
// the moment it is returned; callers enforcing limits should read it as
// close to the decision point as possible.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID) (*UserQuota, error) {
	q, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading quota: %w", err)
	}
	return q, nil
}

// Remaining returns the user's remaining daily token budget.
func (s *Service) Remaining(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	q, err := s.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("reading quota: %w", err)
	}
	return q.RemainingDaily(now), nil
}

// HasExceeded reports whether the user has already reached today's limit.
func (s *Service) HasExceeded(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	q, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("reading quota: %w", err)
	}
	return q.HasExceededDaily(now), nil
}

// Commit records actually billed tokens. Negative counts are a programmer
// error and are rejected before touching the store.
func (s *Service) Commit(ctx context.Context, userID uuid.UUID, tokens int, now time.Time) (*UserQuota, error) {
	if tokens < 0 {
		return nil, fmt.Errorf("quota commit: negative token count %d", tokens)
	}
	return s.store.Commit(ctx, userID, tokens, now)
}

// Stats returns the read-only usage projection for the dashboard.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*Stats, error) {
	q, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading quota: %w", err)
	}
	st := q.Stats(now)
	return &st, nil
}
