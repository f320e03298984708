package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract for per-user quota counters.
//
// Commit must apply the rollover-then-increment sequence atomically per
// user: two concurrent commits may interleave in any order but neither may
// lose an update.
type Store interface {
	// Get returns the user's quota row, creating a zeroed one if absent.
	Get(ctx context.Context, userID uuid.UUID) (*UserQuota, error)

	// Commit rolls over stale windows and adds the spent tokens plus one
	// request to every window, returning the updated row.
	Commit(ctx context.Context, userID uuid.UUID, tokens int, now time.Time) (*UserQuota, error)
}
