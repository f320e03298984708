package projects

import (
	"time"

	"github.com/google/uuid"
)

// Limits enforced on every file write.
const (
	MaxFilesPerProject = 100
	MaxFileSize        = 200 * 1024
	MaxFilenameLength  = 255
)

// Project is a workspace owned by a single user.
type Project struct {
	ID          uuid.UUID `json:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// File is one editor document inside a project. Filename is unique within
// the project; Size always equals len(Content).
type File struct {
	ID           uuid.UUID `json:"id"`
	ProjectID    uuid.UUID `json:"project_id"`
	Filename     string    `json:"filename"`
	Content      string    `json:"content"`
	Size         int       `json:"size"`
	MimeType     string    `json:"mime_type"`
	LastModified time.Time `json:"last_modified"`
}

// CreateProjectRequest is the API payload for creating a project.
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// SaveFileRequest is the API payload for creating or updating a file.
type SaveFileRequest struct {
	Filename string `json:"filename" validate:"required,min=1"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type,omitempty"`
}

// FileSummary is the file listing projection without content.
type FileSummary struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	Size         int       `json:"size"`
	MimeType     string    `json:"mime_type"`
	LastModified time.Time `json:"last_modified"`
}

// Summary returns the content-free projection of a file.
func (f *File) Summary() FileSummary {
	return FileSummary{
		ID:           f.ID,
		Filename:     f.Filename,
		Size:         f.Size,
		MimeType:     f.MimeType,
		LastModified: f.LastModified,
	}
}
