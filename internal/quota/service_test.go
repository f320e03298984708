package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CommitThenStatsRoundTrip(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()
	userID := uuid.New()

	before, err := svc.Stats(ctx, userID, testNow)
	require.NoError(t, err)

	_, err = svc.Commit(ctx, userID, 321, testNow)
	require.NoError(t, err)

	after, err := svc.Stats(ctx, userID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 321, after.Daily.Used)
	assert.Equal(t, 1, after.Daily.Requests)
	assert.Equal(t, before.Total.TokensUsed+321, after.Total.TokensUsed)
}

func TestService_RemainingNeverNegative(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Commit(ctx, userID, 10005, testNow)
	require.NoError(t, err)

	remaining, err := svc.Remaining(ctx, userID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	exceeded, err := svc.HasExceeded(ctx, userID, testNow)
	require.NoError(t, err)
	assert.True(t, exceeded)
}

func TestService_RejectsNegativeTokens(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Commit(context.Background(), uuid.New(), -1, testNow)
	assert.Error(t, err)
}

func TestService_RoleLimits(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	userID := uuid.New()
	store.SetRole(userID, RoleAdmin)

	remaining, err := svc.Remaining(ctx, userID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 100000, remaining)
}

func TestService_LazyRolloverOnCommit(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Commit(ctx, userID, 9990, testNow)
	require.NoError(t, err)

	// Next day: read reports a fresh window before any write happens
	nextDay := testNow.AddDate(0, 0, 1)
	remaining, err := svc.Remaining(ctx, userID, nextDay)
	require.NoError(t, err)
	assert.Equal(t, 10000, remaining)

	// The write materializes the rollover
	q, err := svc.Commit(ctx, userID, 100, nextDay)
	require.NoError(t, err)
	assert.Equal(t, DateKey(nextDay), q.Daily.Date)
	assert.Equal(t, 100, q.Daily.TokensUsed)
	assert.Equal(t, int64(10090), q.TotalTokensUsed)
}

func TestMemoryStore_ConcurrentCommitsLoseNoUpdates(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	userID := uuid.New()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, err := svc.Commit(ctx, userID, 3, testNow)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	q, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, goroutines*perGoroutine*3, q.Daily.TokensUsed)
	assert.Equal(t, goroutines*perGoroutine, q.Daily.RequestCount)
	assert.Equal(t, int64(goroutines*perGoroutine), q.TotalRequests)
}

func TestMemoryStore_IsolatedPerUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	user1 := uuid.New()
	user2 := uuid.New()

	_, err := store.Commit(ctx, user1, 500, testNow)
	require.NoError(t, err)

	q2, err := store.Get(ctx, user2)
	require.NoError(t, err)
	assert.Equal(t, 0, q2.Daily.TokensUsed)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	q, err := store.Get(ctx, userID)
	require.NoError(t, err)
	q.Daily.TokensUsed = 99999

	fresh, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Daily.TokensUsed)
}

func TestDateKeys_UTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC; keys are UTC-based so
	// every node agrees on the window boundary.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 8, 28, 23, 30, 0, 0, loc)
	assert.Equal(t, "2026-08-29", DateKey(local))
	assert.Equal(t, "2026-08", MonthKey(local))
}
