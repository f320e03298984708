package quota

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

func TestDailyLimit(t *testing.T) {
	assert.Equal(t, 10000, DailyLimit(RoleDeveloper))
	assert.Equal(t, 25000, DailyLimit(RoleSME))
	assert.Equal(t, 100000, DailyLimit(RoleAdmin))
	// Unknown roles fall back to the developer limit
	assert.Equal(t, 10000, DailyLimit(Role("intern")))
	assert.Equal(t, 10000, DailyLimit(Role("")))
}

func TestRemainingDaily(t *testing.T) {
	q := &UserQuota{
		UserID: uuid.New(),
		Role:   RoleDeveloper,
		Daily:  DailyWindow{Date: DateKey(testNow), TokensUsed: 9990},
	}
	assert.Equal(t, 10, q.RemainingDaily(testNow))

	// Spend at or over the limit clamps to zero, never negative
	q.Daily.TokensUsed = 10000
	assert.Equal(t, 0, q.RemainingDaily(testNow))
	q.Daily.TokensUsed = 10005
	assert.Equal(t, 0, q.RemainingDaily(testNow))

	// A stale date key means the window has rolled over: the full limit is
	// available again, without mutating the stored counters.
	q.Daily.Date = DateKey(testNow.AddDate(0, 0, -1))
	assert.Equal(t, 10000, q.RemainingDaily(testNow))
	assert.Equal(t, 10005, q.Daily.TokensUsed, "read must not mutate")
}

func TestHasExceededDaily(t *testing.T) {
	q := &UserQuota{Role: RoleDeveloper}

	q.Daily = DailyWindow{Date: DateKey(testNow), TokensUsed: 9999}
	assert.False(t, q.HasExceededDaily(testNow))

	q.Daily.TokensUsed = 10000
	assert.True(t, q.HasExceededDaily(testNow))

	q.Daily.TokensUsed = 50000
	assert.True(t, q.HasExceededDaily(testNow))

	// Stale window: false regardless of the stored counter
	q.Daily.Date = "2026-08-27"
	assert.False(t, q.HasExceededDaily(testNow))
}

func TestApplyCommit_SameDayIsAdditive(t *testing.T) {
	q := &UserQuota{UserID: uuid.New(), Role: RoleDeveloper}

	q.applyCommit(100, testNow)
	q.applyCommit(250, testNow)

	assert.Equal(t, 350, q.Daily.TokensUsed)
	assert.Equal(t, 2, q.Daily.RequestCount)
	assert.Equal(t, 350, q.Monthly.TokensUsed)
	assert.Equal(t, 2, q.Monthly.RequestCount)
	assert.Equal(t, int64(350), q.TotalTokensUsed)
	assert.Equal(t, int64(2), q.TotalRequests)
}

func TestApplyCommit_RollsOverAcrossDateChange(t *testing.T) {
	q := &UserQuota{UserID: uuid.New(), Role: RoleDeveloper}
	q.applyCommit(400, testNow)

	nextDay := testNow.AddDate(0, 0, 1)
	q.applyCommit(50, nextDay)

	assert.Equal(t, DateKey(nextDay), q.Daily.Date)
	assert.Equal(t, 50, q.Daily.TokensUsed, "daily window resets before adding")
	assert.Equal(t, 1, q.Daily.RequestCount)
	// Same month: monthly window keeps accumulating
	assert.Equal(t, 450, q.Monthly.TokensUsed)
	// Lifetime totals never reset
	assert.Equal(t, int64(450), q.TotalTokensUsed)
	assert.Equal(t, int64(2), q.TotalRequests)
}

func TestApplyCommit_MonthlyRollover(t *testing.T) {
	q := &UserQuota{UserID: uuid.New(), Role: RoleSME}
	q.applyCommit(700, testNow)

	nextMonth := time.Date(2026, 9, 1, 0, 5, 0, 0, time.UTC)
	q.applyCommit(30, nextMonth)

	assert.Equal(t, "2026-09", q.Monthly.Month)
	assert.Equal(t, 30, q.Monthly.TokensUsed)
	assert.Equal(t, 1, q.Monthly.RequestCount)
	assert.Equal(t, int64(730), q.TotalTokensUsed)
}

func TestApplyCommit_OverLimitStillRecorded(t *testing.T) {
	// Over-limit commits are allowed once admitted by the gateway pre-check;
	// the tracker only reports state.
	q := &UserQuota{
		UserID: uuid.New(),
		Role:   RoleDeveloper,
		Daily:  DailyWindow{Date: DateKey(testNow), TokensUsed: 9990, RequestCount: 3},
	}
	q.applyCommit(15, testNow)

	assert.Equal(t, 10005, q.Daily.TokensUsed)
	assert.Equal(t, 0, q.RemainingDaily(testNow))
	assert.True(t, q.HasExceededDaily(testNow))
}

func TestStats(t *testing.T) {
	q := &UserQuota{
		UserID:          uuid.New(),
		Role:            RoleSME,
		Daily:           DailyWindow{Date: DateKey(testNow), TokensUsed: 1200, RequestCount: 4},
		Monthly:         MonthlyWindow{Month: MonthKey(testNow), TokensUsed: 8000, RequestCount: 31},
		TotalTokensUsed: 90000,
		TotalRequests:   310,
	}

	s := q.Stats(testNow)
	assert.Equal(t, 25000, s.Daily.Limit)
	assert.Equal(t, 1200, s.Daily.Used)
	assert.Equal(t, 23800, s.Daily.Remaining)
	assert.Equal(t, 4, s.Daily.Requests)
	assert.Equal(t, 8000, s.Monthly.Used)
	assert.Equal(t, 31, s.Monthly.Requests)
	assert.Equal(t, int64(90000), s.Total.TokensUsed)
	assert.Equal(t, int64(310), s.Total.Requests)
}

func TestStats_StaleWindowsReadAsZero(t *testing.T) {
	q := &UserQuota{
		UserID:          uuid.New(),
		Role:            RoleDeveloper,
		Daily:           DailyWindow{Date: "2026-08-01", TokensUsed: 9999, RequestCount: 12},
		Monthly:         MonthlyWindow{Month: "2026-07", TokensUsed: 70000, RequestCount: 400},
		TotalTokensUsed: 123456,
		TotalRequests:   999,
	}

	s := q.Stats(testNow)
	assert.Equal(t, 0, s.Daily.Used)
	assert.Equal(t, 0, s.Daily.Requests)
	assert.Equal(t, 10000, s.Daily.Remaining)
	assert.Equal(t, 0, s.Monthly.Used)
	assert.Equal(t, 0, s.Monthly.Requests)
	// Stats is a pure projection: stored counters are untouched
	assert.Equal(t, 9999, q.Daily.TokensUsed)
	assert.Equal(t, int64(123456), s.Total.TokensUsed)
}
