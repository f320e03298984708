package interactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recorder is the append-only store contract consumed by the assistant
// gateway.
type Recorder interface {
	Insert(ctx context.Context, i *Interaction) error
}

// Service wraps the repository with validation and window aggregation.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Record validates and persists one interaction.
func (s *Service) Record(ctx context.Context, i *Interaction) error {
	if err := validate(i); err != nil {
		return err
	}
	return s.repo.Insert(ctx, i)
}

// Insert satisfies Recorder; it delegates to Record.
func (s *Service) Insert(ctx context.Context, i *Interaction) error {
	return s.Record(ctx, i)
}

// UserStats aggregates the user's interactions over the trailing windowDays.
func (s *Service) UserStats(ctx context.Context, userID uuid.UUID, windowDays int) (*UserStats, error) {
	if windowDays < 1 {
		windowDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	list, err := s.repo.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	stats := Aggregate(list)
	return &stats, nil
}

// ProjectHistory returns the newest interactions for a project.
func (s *Service) ProjectHistory(ctx context.Context, projectID uuid.UUID, limit int) ([]HistoryEntry, error) {
	return s.repo.ProjectHistory(ctx, projectID, limit)
}

// Aggregate computes window statistics over a slice of interactions. The
// success rate is the arithmetic mean of the 0/1 success flags; the mode
// breakdown lists every mode used, not deduplicated.
func Aggregate(list []Interaction) UserStats {
	stats := UserStats{ModeBreakdown: make([]Mode, 0, len(list))}
	if len(list) == 0 {
		return stats
	}

	var totalResponseMs int64
	var successes int
	for i := range list {
		stats.TotalTokensUsed += list[i].Tokens.Total
		totalResponseMs += int64(list[i].ResponseTimeMs)
		if list[i].Success {
			successes++
		}
		stats.ModeBreakdown = append(stats.ModeBreakdown, list[i].Mode)
	}

	n := len(list)
	stats.TotalInteractions = n
	stats.AvgResponseTimeMs = float64(totalResponseMs) / float64(n)
	stats.SuccessRate = float64(successes) / float64(n)
	return stats
}

func validate(i *Interaction) error {
	if i.UserID == uuid.Nil {
		return fmt.Errorf("interaction: missing user id")
	}
	if !ValidMode(i.Mode) {
		return fmt.Errorf("interaction: unknown mode %q", i.Mode)
	}
	if len(i.Prompt) > MaxPromptLength {
		return fmt.Errorf("interaction: prompt exceeds %d characters", MaxPromptLength)
	}
	if len(i.Response) > MaxResponseLength {
		return fmt.Errorf("interaction: response exceeds %d characters", MaxResponseLength)
	}
	if i.Tokens.Total != i.Tokens.Input+i.Tokens.Output {
		return fmt.Errorf("interaction: token total %d does not equal input %d + output %d",
			i.Tokens.Total, i.Tokens.Input, i.Tokens.Output)
	}
	return nil
}
