package projects

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/devpad-platform/devpad/internal/api"
	"github.com/devpad-platform/devpad/internal/auth"
	"github.com/devpad-platform/devpad/internal/events"
)

// AuditSink receives file-write audit events. Publishing is best-effort.
type AuditSink interface {
	PublishAuditEvent(ctx context.Context, event events.AuditEvent) error
}

type Handler struct {
	svc      *Service
	audit    AuditSink
	validate *validator.Validate
}

func NewHandler(svc *Service, audit AuditSink) *Handler {
	return &Handler{
		svc:      svc,
		audit:    audit,
		validate: validator.New(),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	project, err := h.svc.Create(r.Context(), ownerID, &req)
	if err != nil {
		slog.Error("creating project", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, project)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	projects, err := h.svc.ListByOwner(r.Context(), ownerID)
	if err != nil {
		slog.Error("listing projects", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, projects)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	project := GetProjectFromContext(r.Context())
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	api.JSON(w, http.StatusOK, project)
}

func (h *Handler) SaveFile(w http.ResponseWriter, r *http.Request) {
	project := GetProjectFromContext(r.Context())
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	var req SaveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	file, err := h.svc.SaveFile(r.Context(), project.ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrFilenameTooLong), errors.Is(err, ErrTooManyFiles):
			api.HandleError(w, api.NewValidationError(err.Error()))
		default:
			slog.Error("saving file", "error", err, "project_id", project.ID)
			api.HandleError(w, api.ErrInternalServer)
		}
		return
	}

	h.publishFileEvent(r.Context(), events.EventFileSaved, project, file.Filename)
	api.JSON(w, http.StatusOK, file)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	project := GetProjectFromContext(r.Context())
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	files, err := h.svc.ListFiles(r.Context(), project.ID)
	if err != nil {
		slog.Error("listing files", "error", err, "project_id", project.ID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	summaries := make([]FileSummary, 0, len(files))
	for i := range files {
		summaries = append(summaries, files[i].Summary())
	}

	api.JSON(w, http.StatusOK, summaries)
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	project := GetProjectFromContext(r.Context())
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	filename := chi.URLParam(r, "filename")
	file, err := h.svc.GetFile(r.Context(), project.ID, filename)
	if err != nil {
		slog.Error("fetching file", "error", err, "project_id", project.ID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if file == nil {
		api.HandleError(w, api.NewNotFoundError("file not found"))
		return
	}

	api.JSON(w, http.StatusOK, file)
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	project := GetProjectFromContext(r.Context())
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	filename := chi.URLParam(r, "filename")
	deleted, err := h.svc.DeleteFile(r.Context(), project.ID, filename)
	if err != nil {
		slog.Error("deleting file", "error", err, "project_id", project.ID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if !deleted {
		api.HandleError(w, api.NewNotFoundError("file not found"))
		return
	}

	h.publishFileEvent(r.Context(), events.EventFileDeleted, project, filename)
	api.JSONMessage(w, http.StatusOK, "file deleted")
}

func (h *Handler) publishFileEvent(ctx context.Context, eventType string, project *Project, filename string) {
	if h.audit == nil {
		return
	}
	err := h.audit.PublishAuditEvent(ctx, events.AuditEvent{
		UserID:       project.OwnerUserID,
		EventType:    eventType,
		Severity:     "info",
		ResourceType: "project_file",
		ResourceID:   project.ID.String(),
		Details:      filename,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("publishing file audit event", "error", err, "event_type", eventType, "project_id", project.ID)
	}
}

// OwnershipMiddleware verifies project ownership before allowing access.
func (h *Handler) OwnershipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			api.HandleError(w, api.ErrUnauthorized)
			return
		}

		projectIDStr := chi.URLParam(r, "projectID")
		projectID, err := uuid.Parse(projectIDStr)
		if err != nil {
			api.HandleError(w, api.NewBadRequestError("invalid project ID"))
			return
		}

		project, err := h.svc.Get(r.Context(), projectID)
		if err != nil {
			slog.Error("fetching project for ownership check", "error", err)
			api.HandleError(w, api.ErrInternalServer)
			return
		}
		if project == nil {
			api.HandleError(w, api.NewNotFoundError("project not found"))
			return
		}

		if project.OwnerUserID.String() != claims.UserID {
			slog.Warn("ownership violation attempt",
				"project_id", projectID,
				"project_owner", project.OwnerUserID,
				"requester", claims.UserID,
				"path", r.URL.Path,
				"method", r.Method,
			)
			api.HandleError(w, api.ErrOwnershipViolation)
			return
		}

		ctx := SetProjectInContext(r.Context(), project)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
