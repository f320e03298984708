package interactions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles ai_interactions PostgreSQL operations. Records are
// append-only: there is no update or delete path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new interactions Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists one immutable interaction record.
func (r *Repository) Insert(ctx context.Context, i *Interaction) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}

	contextFiles, err := json.Marshal(i.ContextFiles)
	if err != nil {
		return fmt.Errorf("marshaling context files: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO ai_interactions
		   (id, user_id, project_id, prompt, response, mode, model,
		    input_tokens, output_tokens, total_tokens,
		    response_time_ms, success, error, context_files, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		i.ID, i.UserID, i.ProjectID, i.Prompt, i.Response, i.Mode, i.Model,
		i.Tokens.Input, i.Tokens.Output, i.Tokens.Total,
		i.ResponseTimeMs, i.Success, i.Error, contextFiles, i.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// ListByUserSince returns all interactions for a user created at or after
// the given time, oldest first.
func (r *Repository) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]Interaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, project_id, prompt, response, mode, model,
		        input_tokens, output_tokens, total_tokens,
		        response_time_ms, success, error, context_files, created_at
		 FROM ai_interactions
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at ASC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var i Interaction
		var contextFiles []byte
		if err := rows.Scan(&i.ID, &i.UserID, &i.ProjectID, &i.Prompt, &i.Response, &i.Mode, &i.Model,
			&i.Tokens.Input, &i.Tokens.Output, &i.Tokens.Total,
			&i.ResponseTimeMs, &i.Success, &i.Error, &contextFiles, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		if len(contextFiles) > 0 {
			_ = json.Unmarshal(contextFiles, &i.ContextFiles)
		}
		out = append(out, i)
	}
	return out, nil
}

// ProjectHistory returns the newest interactions for a project, capped at
// limit, excluding the response body from the projection.
func (r *Repository) ProjectHistory(ctx context.Context, projectID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, prompt, mode, model,
		        input_tokens, output_tokens, total_tokens,
		        response_time_ms, success, error, created_at
		 FROM ai_interactions
		 WHERE project_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying project history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Prompt, &e.Mode, &e.Model,
			&e.Tokens.Input, &e.Tokens.Output, &e.Tokens.Total,
			&e.ResponseTimeMs, &e.Success, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
