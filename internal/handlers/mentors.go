package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

// MentorServiceInterface defines the interface for mentor provisioning
type MentorServiceInterface interface {
	Create(ctx context.Context, name, email, expertise string, adminID int64) (*models.Mentor, error)
	Get(ctx context.Context, id int64) (*models.Mentor, error)
	List(ctx context.Context, limit, offset int) ([]*models.Mentor, error)
}

// MentorHandler handles mentor HTTP requests
type MentorHandler struct {
	service MentorServiceInterface
}

// NewMentorHandler creates a new MentorHandler
func NewMentorHandler(service MentorServiceInterface) *MentorHandler {
	return &MentorHandler{service: service}
}

// CreateMentorRequest represents the admin request to provision a mentor
type CreateMentorRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Expertise string `json:"expertise" validate:"max=255"`
}

// Create provisions a mentor account, admin only
func (h *MentorHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateMentorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	mentor, err := h.service.Create(r.Context(), req.Name, req.Email, req.Expertise, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "A mentor with this email already exists")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toMentorResponse(mentor))
}

// List returns all mentors
func (h *MentorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	mentors, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]MentorResponse, 0, len(mentors))
	for _, mentor := range mentors {
		responses = append(responses, toMentorResponse(mentor))
	}
	pkghttp.WriteJSON(w, http.StatusOK, responses)
}

// Get returns one mentor
func (h *MentorHandler) Get(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid mentor id")
		return
	}

	mentor, err := h.service.Get(r.Context(), mentorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Mentor not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toMentorResponse(mentor))
}
