package projects

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Validation failures rejected before any write.
var (
	ErrFileTooLarge    = errors.New("file content exceeds 200KB")
	ErrFilenameTooLong = errors.New("filename exceeds 255 characters")
	ErrTooManyFiles    = errors.New("project already holds the maximum of 100 files")
	ErrProjectNotFound = errors.New("project not found")
)

// FileStore is the read-side contract the assistant gateway consumes.
type FileStore interface {
	ListFiles(ctx context.Context, projectID uuid.UUID) ([]File, error)
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateProjectRequest) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		Name:        req.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Project, error) {
	return s.repo.ListProjectsByOwner(ctx, ownerID)
}

// SaveFile validates limits and creates or replaces a file. New files count
// against the per-project cap; overwrites do not.
func (s *Service) SaveFile(ctx context.Context, projectID uuid.UUID, req *SaveFileRequest) (*File, error) {
	if err := validateFile(req.Filename, req.Content); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetFile(ctx, projectID, req.Filename)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		count, err := s.repo.CountFiles(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if count >= MaxFilesPerProject {
			return nil, ErrTooManyFiles
		}
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = detectMimeType(req.Filename)
	}

	f := &File{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Filename:     req.Filename,
		Content:      req.Content,
		Size:         len(req.Content),
		MimeType:     mimeType,
		LastModified: time.Now().UTC(),
	}
	if existing != nil {
		f.ID = existing.ID
	}
	if err := s.repo.UpsertFile(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) ListFiles(ctx context.Context, projectID uuid.UUID) ([]File, error) {
	return s.repo.ListFiles(ctx, projectID)
}

func (s *Service) GetFile(ctx context.Context, projectID uuid.UUID, filename string) (*File, error) {
	return s.repo.GetFile(ctx, projectID, filename)
}

func (s *Service) DeleteFile(ctx context.Context, projectID uuid.UUID, filename string) (bool, error) {
	return s.repo.DeleteFile(ctx, projectID, filename)
}

func validateFile(filename, content string) error {
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if len(content) > MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}
	return nil
}

func detectMimeType(filename string) string {
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		return mt
	}
	return "text/plain"
}
