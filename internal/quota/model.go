package quota

import (
	"time"

	"github.com/google/uuid"
)

// Role determines a user's daily token allowance.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleSME       Role = "sme"
	RoleAdmin     Role = "admin"
)

// Daily token limits per role. Unknown roles fall back to the developer limit.
var dailyLimits = map[Role]int{
	RoleDeveloper: 10000,
	RoleSME:       25000,
	RoleAdmin:     100000,
}

// DailyLimit returns the daily token allowance for a role.
func DailyLimit(role Role) int {
	if limit, ok := dailyLimits[role]; ok {
		return limit
	}
	return dailyLimits[RoleDeveloper]
}

// DateKey returns the calendar-day key (YYYY-MM-DD, UTC) for a timestamp.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey returns the calendar-month key (YYYY-MM, UTC) for a timestamp.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DailyWindow holds usage counters for a single calendar day. The counters
// are only meaningful while Date matches the current day key; a stale Date
// means the window has rolled over and reads must treat it as zero. The
// reset itself is materialized on the next commit (lazy rollover).
type DailyWindow struct {
	Date         string `json:"date"`
	TokensUsed   int    `json:"tokens_used"`
	RequestCount int    `json:"request_count"`
}

// MonthlyWindow is the calendar-month counterpart of DailyWindow.
type MonthlyWindow struct {
	Month        string `json:"month"`
	TokensUsed   int    `json:"tokens_used"`
	RequestCount int    `json:"request_count"`
}

// UserQuota matches the user_quotas table schema, one row per user.
type UserQuota struct {
	UserID          uuid.UUID     `json:"user_id"`
	Role            Role          `json:"role"`
	Daily           DailyWindow   `json:"daily"`
	Monthly         MonthlyWindow `json:"monthly"`
	TotalTokensUsed int64         `json:"total_tokens_used"`
	TotalRequests   int64         `json:"total_requests"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// RemainingDaily returns the tokens still available today. A stale daily key
// means the window has rolled over, so the full limit is available. Never
// negative.
func (q *UserQuota) RemainingDaily(now time.Time) int {
	limit := DailyLimit(q.Role)
	if q.Daily.Date != DateKey(now) {
		return limit
	}
	if q.Daily.TokensUsed >= limit {
		return 0
	}
	return limit - q.Daily.TokensUsed
}

// HasExceededDaily reports whether today's spend has reached the daily limit.
// A stale daily key is an unused window, so it reports false regardless of
// the stored counter.
func (q *UserQuota) HasExceededDaily(now time.Time) bool {
	if q.Daily.Date != DateKey(now) {
		return false
	}
	return q.Daily.TokensUsed >= DailyLimit(q.Role)
}

// applyCommit performs the lazy rollover followed by the increments. Callers
// must serialize invocations per user; the memory store does this under its
// lock and the postgres store expresses the same sequence as one UPDATE.
func (q *UserQuota) applyCommit(tokens int, now time.Time) {
	day := DateKey(now)
	if q.Daily.Date != day {
		q.Daily = DailyWindow{Date: day}
	}
	q.Daily.TokensUsed += tokens
	q.Daily.RequestCount++

	month := MonthKey(now)
	if q.Monthly.Month != month {
		q.Monthly = MonthlyWindow{Month: month}
	}
	q.Monthly.TokensUsed += tokens
	q.Monthly.RequestCount++

	q.TotalTokensUsed += int64(tokens)
	q.TotalRequests++
	q.UpdatedAt = now
}

// Stats is the read-only usage projection returned to the dashboard.
type Stats struct {
	Daily struct {
		Limit     int `json:"limit"`
		Used      int `json:"used"`
		Remaining int `json:"remaining"`
		Requests  int `json:"requests"`
	} `json:"daily"`
	Monthly struct {
		Used     int `json:"used"`
		Requests int `json:"requests"`
	} `json:"monthly"`
	Total struct {
		TokensUsed int64 `json:"tokens_used"`
		Requests   int64 `json:"requests"`
	} `json:"total"`
}

// Stats projects the quota into display form. Stale windows report zero
// without mutating state; the reset happens on the next commit.
func (q *UserQuota) Stats(now time.Time) Stats {
	var s Stats
	s.Daily.Limit = DailyLimit(q.Role)
	if q.Daily.Date == DateKey(now) {
		s.Daily.Used = q.Daily.TokensUsed
		s.Daily.Requests = q.Daily.RequestCount
	}
	s.Daily.Remaining = q.RemainingDaily(now)
	if q.Monthly.Month == MonthKey(now) {
		s.Monthly.Used = q.Monthly.TokensUsed
		s.Monthly.Requests = q.Monthly.RequestCount
	}
	s.Total.TokensUsed = q.TotalTokensUsed
	s.Total.Requests = q.TotalRequests
	return s
}
