package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

// ApplicationServiceInterface defines the interface for intake business logic
type ApplicationServiceInterface interface {
	Submit(ctx context.Context, teamName, email, summary string) (*models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Application, error)
	Approve(ctx context.Context, applicationID string, adminID int64) (*models.Project, error)
	Reject(ctx context.Context, applicationID string, adminID int64, note string) error
}

// ApplicationHandler handles intake HTTP requests
type ApplicationHandler struct {
	service ApplicationServiceInterface
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(service ApplicationServiceInterface) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// SubmitApplicationRequest represents the public application form
type SubmitApplicationRequest struct {
	TeamName string `json:"team_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Summary  string `json:"summary" validate:"required,min=10,max=4000"`
}

// RejectApplicationRequest carries the optional reviewer note
type RejectApplicationRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

// ApplicationResponse is the JSON shape of an application
type ApplicationResponse struct {
	ID          string     `json:"id"`
	TeamName    string     `json:"team_name"`
	Email       string     `json:"email"`
	Summary     string     `json:"summary"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	RejectNote  *string    `json:"reject_note,omitempty"`
	ProjectID   *int64     `json:"project_id,omitempty"`
}

func toApplicationResponse(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          app.ID,
		TeamName:    app.TeamName,
		Email:       app.Email,
		Summary:     app.Summary,
		Status:      app.Status,
		SubmittedAt: app.SubmittedAt,
		DecidedAt:   app.DecidedAt,
		RejectNote:  app.RejectNote,
		ProjectID:   app.ProjectID,
	}
}

// Submit accepts a new application from the public form
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	app, err := h.service.Submit(r.Context(), req.TeamName, req.Email, req.Summary)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// List returns the review queue for one status, admin only
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.ApplicationPending
	}

	limit, offset := paginationParams(r)

	apps, err := h.service.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Unknown status")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		responses = append(responses, toApplicationResponse(app))
	}
	pkghttp.WriteJSON(w, http.StatusOK, responses)
}

// Get returns one application, admin only
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Application not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Approve accepts a pending application, admin only
func (h *ApplicationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	project, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), session.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Application not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Application already decided")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toProjectResponse(project))
}

// Reject declines a pending application, admin only
func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req RejectApplicationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
		if err := ValidateRequest(req); err != nil {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
	}

	err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), session.UserID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Application not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Application already decided")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
