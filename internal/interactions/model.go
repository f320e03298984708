package interactions

import (
	"time"

	"github.com/google/uuid"
)

// Mode of an assistant call.
type Mode string

const (
	ModeExplain  Mode = "explain"
	ModeGenerate Mode = "generate"
)

// ValidMode reports whether m is a known assistant mode.
func ValidMode(m Mode) bool {
	return m == ModeExplain || m == ModeGenerate
}

// Payload bounds enforced before persisting.
const (
	MaxPromptLength   = 10000
	MaxResponseLength = 50000
)

// FailedResponsePlaceholder is stored instead of partial provider output
// when a call fails.
const FailedResponsePlaceholder = "[no response: the assistant call failed]"

// TokenUsage is the billed token triple. Total is always Input + Output.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// ContextFileRef records one file actually sent as prompt context.
type ContextFileRef struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

// Interaction is the append-only record of a single assistant call attempt,
// created exactly once whether the call succeeded or failed.
type Interaction struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	ProjectID      *uuid.UUID       `json:"project_id,omitempty"`
	Prompt         string           `json:"prompt"`
	Response       string           `json:"response"`
	Mode           Mode             `json:"mode"`
	Model          string           `json:"model"`
	Tokens         TokenUsage       `json:"tokens_used"`
	ResponseTimeMs int              `json:"response_time_ms"`
	Success        bool             `json:"success"`
	Error          string           `json:"error,omitempty"`
	ContextFiles   []ContextFileRef `json:"context_files,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// MarkAsFailed flips the record into its failure shape. Valid only before
// the initial persist; stored records are immutable.
func (i *Interaction) MarkAsFailed(errMsg string) {
	i.Success = false
	i.Error = errMsg
	i.Response = FailedResponsePlaceholder
	i.Tokens = TokenUsage{}
}

// HistoryEntry is the project history projection. The response body is
// excluded to bound payload size.
type HistoryEntry struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Prompt         string     `json:"prompt"`
	Mode           Mode       `json:"mode"`
	Model          string     `json:"model"`
	Tokens         TokenUsage `json:"tokens_used"`
	ResponseTimeMs int        `json:"response_time_ms"`
	Success        bool       `json:"success"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UserStats aggregates a user's interactions over a trailing window.
type UserStats struct {
	TotalInteractions int     `json:"total_interactions"`
	TotalTokensUsed   int     `json:"total_tokens_used"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	SuccessRate       float64 `json:"success_rate"`
	ModeBreakdown     []Mode  `json:"mode_breakdown"`
}
