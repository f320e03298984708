package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devpad-platform/devpad/internal/config"
	"github.com/devpad-platform/devpad/internal/events"
	"github.com/devpad-platform/devpad/internal/interactions"
	"github.com/devpad-platform/devpad/internal/metrics"
	"github.com/devpad-platform/devpad/internal/projects"
	"github.com/devpad-platform/devpad/internal/quota"
)

// AuditSink receives audit events off the critical path. Publishing is
// best-effort: failures are logged, never surfaced.
type AuditSink interface {
	PublishAuditEvent(ctx context.Context, event events.AuditEvent) error
}

// AskRequest is one assistant call on behalf of a user.
type AskRequest struct {
	UserID    uuid.UUID
	ProjectID *uuid.UUID
	Prompt    string
	Mode      interactions.Mode
}

// AskResult is returned to the caller. Warnings carry persistence problems
// that must be surfaced without withholding the AI response.
type AskResult struct {
	Response       string                        `json:"response"`
	Mode           interactions.Mode             `json:"mode"`
	Model          string                        `json:"model"`
	Tokens         interactions.TokenUsage       `json:"tokens_used"`
	ResponseTimeMs int                           `json:"response_time_ms"`
	ContextFiles   []interactions.ContextFileRef `json:"context_files,omitempty"`
	QuotaRemaining int                           `json:"quota_remaining"`
	Warnings       []string                      `json:"warnings,omitempty"`
}

// Gateway enforces the user's token quota around every AI call: it checks
// the budget before calling the provider, selects the file context under a
// separate prompt-size budget, commits actually billed tokens on success
// only, and records every attempt.
type Gateway struct {
	quota    *quota.Service
	files    projects.FileStore
	recorder interactions.Recorder
	provider Provider
	audit    AuditSink
	cfg      config.AssistantConfig

	now func() time.Time
}

// NewGateway creates a Gateway. The audit sink may be nil.
func NewGateway(
	quotaSvc *quota.Service,
	files projects.FileStore,
	recorder interactions.Recorder,
	provider Provider,
	audit AuditSink,
	cfg config.AssistantConfig,
) *Gateway {
	return &Gateway{
		quota:    quotaSvc,
		files:    files,
		recorder: recorder,
		provider: provider,
		audit:    audit,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ask runs one quota-enforced assistant call.
func (g *Gateway) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	// Validation resolves before any quota check or external side effect.
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Checking: fresh quota read; deny before the provider is ever called.
	// The anticipated maximum spend is compared against the remaining daily
	// budget; commits themselves are unconditional once a call is admitted.
	now := g.now()
	snap, err := g.quota.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	remaining := snap.RemainingDaily(now)
	if snap.HasExceededDaily(now) || g.cfg.MaxTokensPerRequest > remaining {
		metrics.QuotaDenialsTotal.Inc()
		g.publishAudit(ctx, events.AuditEvent{
			UserID:       req.UserID,
			EventType:    events.EventQuotaDenied,
			Severity:     "warn",
			ResourceType: "quota",
			Details:      fmt.Sprintf("anticipated %d tokens, %d remaining", g.cfg.MaxTokensPerRequest, remaining),
			Timestamp:    now,
		})
		return nil, fmt.Errorf("%w: %d tokens remaining today", ErrQuotaExceeded, remaining)
	}

	// Selecting: bound prompt size with the context budget. This budget is
	// independent of the billed token quota checked above.
	var contextFiles []projects.File
	if req.ProjectID != nil {
		files, err := g.files.ListFiles(ctx, *req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("loading project files: %w", err)
		}
		contextFiles = SelectContext(files, g.cfg.ContextBudgetTokens)
	}

	fileRefs := make([]interactions.ContextFileRef, 0, len(contextFiles))
	for i := range contextFiles {
		fileRefs = append(fileRefs, interactions.ContextFileRef{
			Filename: contextFiles[i].Filename,
			Size:     contextFiles[i].Size,
		})
	}

	record := &interactions.Interaction{
		ID:           uuid.New(),
		UserID:       req.UserID,
		ProjectID:    req.ProjectID,
		Prompt:       req.Prompt,
		Mode:         req.Mode,
		Model:        g.cfg.Model,
		ContextFiles: fileRefs,
		CreatedAt:    now,
	}

	// Calling: the provider is the only potentially slow step; it runs under
	// the caller's context plus the configured timeout. Cancellation is a
	// failure: no quota is committed.
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	completion, callErr := g.provider.Complete(callCtx, CompletionRequest{
		Prompt: buildPrompt(req.Prompt, contextFiles),
		Mode:   req.Mode,
		Model:  g.cfg.Model,
	})
	record.ResponseTimeMs = int(time.Since(start).Milliseconds())

	if callErr != nil {
		record.MarkAsFailed(callErr.Error())
		metrics.AssistantRequestsTotal.WithLabelValues(string(req.Mode), "failed").Inc()
		g.publishAudit(ctx, events.AuditEvent{
			UserID:       req.UserID,
			EventType:    events.EventProviderError,
			Severity:     "error",
			ResourceType: "assistant",
			ResourceID:   record.ID.String(),
			Details:      callErr.Error(),
			Timestamp:    g.now(),
		})
		// Recorded: failed attempts are logged too, with zero token usage.
		if recErr := g.recorder.Insert(ctx, record); recErr != nil {
			slog.Error("recording failed interaction", "error", recErr, "interaction_id", record.ID)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, callErr)
	}

	record.Success = true
	record.Response = truncate(completion.Response, interactions.MaxResponseLength)
	record.Tokens = interactions.TokenUsage{
		Input:  completion.InputTokens,
		Output: completion.OutputTokens,
		Total:  completion.InputTokens + completion.OutputTokens,
	}

	result := &AskResult{
		Response:       completion.Response,
		Mode:           req.Mode,
		Model:          g.cfg.Model,
		Tokens:         record.Tokens,
		ResponseTimeMs: record.ResponseTimeMs,
		ContextFiles:   fileRefs,
	}

	// Committing: only successful calls consume quota, billed at the
	// provider-reported counts. A commit failure must not withhold the
	// response, but the caller is told accounting may be delayed.
	updated, commitErr := g.quota.Commit(ctx, req.UserID, record.Tokens.Total, g.now())
	if commitErr != nil {
		slog.Error("committing quota usage", "error", commitErr, "user_id", req.UserID)
		result.Warnings = append(result.Warnings, "usage accounting may be delayed")
		result.QuotaRemaining = remaining
		g.publishAudit(ctx, events.AuditEvent{
			UserID:       req.UserID,
			EventType:    events.EventPersistenceError,
			Severity:     "error",
			ResourceType: "quota",
			Details:      commitErr.Error(),
			Timestamp:    g.now(),
		})
	} else {
		result.QuotaRemaining = updated.RemainingDaily(g.now())
	}

	// Recorded: logging is best-effort auxiliary, never on the critical
	// path of returning the response.
	if recErr := g.recorder.Insert(ctx, record); recErr != nil {
		slog.Error("recording interaction", "error", recErr, "interaction_id", record.ID)
		result.Warnings = append(result.Warnings, "interaction logging failed")
	}

	metrics.AssistantRequestsTotal.WithLabelValues(string(req.Mode), "success").Inc()
	metrics.AssistantTokensTotal.WithLabelValues("input").Add(float64(record.Tokens.Input))
	metrics.AssistantTokensTotal.WithLabelValues("output").Add(float64(record.Tokens.Output))

	return result, nil
}

func (g *Gateway) publishAudit(ctx context.Context, event events.AuditEvent) {
	if g.audit == nil {
		return
	}
	if err := g.audit.PublishAuditEvent(ctx, event); err != nil {
		slog.Warn("publishing audit event", "error", err, "event_type", event.EventType)
	}
}

func validateRequest(req AskRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(req.Prompt) > interactions.MaxPromptLength {
		return fmt.Errorf("%w: %d characters", ErrPromptTooLong, len(req.Prompt))
	}
	if !interactions.ValidMode(req.Mode) {
		return fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	return nil
}

// buildPrompt prepends the selected file context to the user's prompt.
func buildPrompt(prompt string, files []projects.File) string {
	if len(files) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString("Project files for context:\n\n")
	for i := range files {
		b.WriteString("--- ")
		b.WriteString(files[i].Filename)
		b.WriteString(" ---\n")
		b.WriteString(files[i].Content)
		if !strings.HasSuffix(files[i].Content, "\n") {
			b.WriteByte('\n')
		}
	}
	b.WriteString("\n")
	b.WriteString(prompt)
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
