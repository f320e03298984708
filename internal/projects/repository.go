package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles projects and project_files PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new projects Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, owner_user_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.OwnerUserID, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	p := &Project{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, name, created_at, updated_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerUserID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProjectsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_user_id, name, created_at, updated_at
		 FROM projects WHERE owner_user_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.OwnerUserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// CountFiles returns the number of files currently in a project.
func (r *Repository) CountFiles(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM project_files WHERE project_id = $1`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting project files: %w", err)
	}
	return count, nil
}

// UpsertFile creates the file or replaces its content when the filename
// already exists in the project.
func (r *Repository) UpsertFile(ctx context.Context, f *File) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO project_files (id, project_id, filename, content, size, mime_type, last_modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (project_id, filename) DO UPDATE SET
		   content = EXCLUDED.content,
		   size = EXCLUDED.size,
		   mime_type = EXCLUDED.mime_type,
		   last_modified = EXCLUDED.last_modified`,
		f.ID, f.ProjectID, f.Filename, f.Content, f.Size, f.MimeType, f.LastModified)
	if err != nil {
		return fmt.Errorf("upserting project file: %w", err)
	}
	return nil
}

// ListFiles returns all files of a project including content, most recently
// modified first.
func (r *Repository) ListFiles(ctx context.Context, projectID uuid.UUID) ([]File, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, filename, content, size, mime_type, last_modified
		 FROM project_files WHERE project_id = $1 ORDER BY last_modified DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying project files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Filename, &f.Content, &f.Size, &f.MimeType, &f.LastModified); err != nil {
			return nil, fmt.Errorf("scanning project file: %w", err)
		}
		files = append(files, f)
	}
	return files, nil
}

func (r *Repository) GetFile(ctx context.Context, projectID uuid.UUID, filename string) (*File, error) {
	f := &File{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, filename, content, size, mime_type, last_modified
		 FROM project_files WHERE project_id = $1 AND filename = $2`, projectID, filename,
	).Scan(&f.ID, &f.ProjectID, &f.Filename, &f.Content, &f.Size, &f.MimeType, &f.LastModified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying project file: %w", err)
	}
	return f, nil
}

func (r *Repository) DeleteFile(ctx context.Context, projectID uuid.UUID, filename string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM project_files WHERE project_id = $1 AND filename = $2`, projectID, filename)
	if err != nil {
		return false, fmt.Errorf("deleting project file: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
