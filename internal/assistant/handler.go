package assistant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/devpad-platform/devpad/internal/api"
	"github.com/devpad-platform/devpad/internal/auth"
	"github.com/devpad-platform/devpad/internal/interactions"
	"github.com/devpad-platform/devpad/internal/projects"
	"github.com/devpad-platform/devpad/internal/quota"
)

type Handler struct {
	gateway      *Gateway
	quota        *quota.Service
	interactions *interactions.Service
}

func NewHandler(gateway *Gateway, quotaSvc *quota.Service, interactionsSvc *interactions.Service) *Handler {
	return &Handler{
		gateway:      gateway,
		quota:        quotaSvc,
		interactions: interactionsSvc,
	}
}

type askPayload struct {
	Prompt string            `json:"prompt"`
	Mode   interactions.Mode `json:"mode"`
}

// Ask handles an assistant call without project context.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, nil)
}

// AskInProject handles an assistant call with the project's files as context.
// The ownership middleware has already resolved and verified the project.
func (h *Handler) AskInProject(w http.ResponseWriter, r *http.Request) {
	project := projects.GetProjectFromContext(r.Context())
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}
	h.ask(w, r, &project.ID)
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request, projectID *uuid.UUID) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var payload askPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	result, err := h.gateway.Ask(r.Context(), AskRequest{
		UserID:    userID,
		ProjectID: projectID,
		Prompt:    payload.Prompt,
		Mode:      payload.Mode,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrQuotaExceeded):
			api.HandleError(w, api.NewQuotaExceededError(err.Error()))
		case errors.Is(err, ErrEmptyPrompt), errors.Is(err, ErrPromptTooLong), errors.Is(err, ErrUnknownMode):
			api.HandleError(w, api.NewValidationError(err.Error()))
		case errors.Is(err, ErrProviderUnavailable):
			slog.Error("assistant provider call failed", "error", err, "user_id", userID)
			api.HandleError(w, api.ErrProviderDown)
		default:
			slog.Error("assistant call failed", "error", err, "user_id", userID)
			api.HandleError(w, api.ErrInternalServer)
		}
		return
	}

	api.JSON(w, http.StatusOK, result)
}

// GetUsage returns the caller's quota dashboard projection.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	stats, err := h.quota.Stats(r.Context(), userID, time.Now().UTC())
	if err != nil {
		slog.Error("fetching quota stats", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, stats)
}

// GetUserStats returns interaction aggregates over a trailing window
// (?window_days=N, default 30).
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	windowDays := 30
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			api.HandleError(w, api.NewBadRequestError("window_days must be between 1 and 365"))
			return
		}
		windowDays = parsed
	}

	stats, err := h.interactions.UserStats(r.Context(), userID, windowDays)
	if err != nil {
		slog.Error("aggregating interaction stats", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, stats)
}

// ProjectHistory returns the project's newest interactions without response
// bodies (?limit=N, default 20, max 100).
func (h *Handler) ProjectHistory(w http.ResponseWriter, r *http.Request) {
	project := projects.GetProjectFromContext(r.Context())
	if project == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.HandleError(w, api.NewBadRequestError("limit must be an integer"))
			return
		}
		limit = parsed
	}

	history, err := h.interactions.ProjectHistory(r.Context(), project.ID, limit)
	if err != nil {
		slog.Error("fetching project history", "error", err, "project_id", project.ID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, history)
}
