package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

// ProjectServiceInterface defines the interface for project business logic
type ProjectServiceInterface interface {
	Get(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context, limit, offset int) ([]*models.Project, error)
	ListForMentor(ctx context.Context, mentorID int64) ([]*models.Project, error)
	ListMentors(ctx context.Context, projectID int64) ([]*models.Mentor, error)
	AdvanceStage(ctx context.Context, projectID, adminID int64) (*models.Project, error)
	RevertStage(ctx context.Context, projectID, adminID int64) (*models.Project, error)
	AssignMentor(ctx context.Context, mentorID, projectID, adminID int64) error
	UnassignMentor(ctx context.Context, mentorID, projectID, adminID int64) error
}

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// ProjectResponse is the JSON shape of a project
type ProjectResponse struct {
	ID          int64     `json:"id"`
	ProfileName string    `json:"profile_name"`
	TeamName    string    `json:"team_name"`
	Summary     string    `json:"summary"`
	Stage       string    `json:"stage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(project *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID,
		ProfileName: project.ProfileName,
		TeamName:    project.TeamName,
		Summary:     project.Summary,
		Stage:       project.Stage.String(),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// MentorResponse is the JSON shape of a mentor
type MentorResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Expertise string `json:"expertise"`
}

func toMentorResponse(mentor *models.Mentor) MentorResponse {
	return MentorResponse{
		ID:        mentor.ID,
		Name:      mentor.Name,
		Expertise: mentor.Expertise,
	}
}

// List returns projects. Mentors see the projects they are assigned
// to; a project team sees only itself; admins see everything.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var projects []*models.Project
	var err error

	switch session.Role {
	case models.RoleAdmin:
		limit, offset := paginationParams(r)
		projects, err = h.service.List(r.Context(), limit, offset)
	case models.RoleMentor:
		projects, err = h.service.ListForMentor(r.Context(), session.UserID)
	case models.RoleProject:
		var own *models.Project
		own, err = h.service.Get(r.Context(), session.UserID)
		if err == nil {
			projects = []*models.Project{own}
		}
	}
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		responses = append(responses, toProjectResponse(project))
	}
	pkghttp.WriteJSON(w, http.StatusOK, responses)
}

// Get returns one project
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	projectID, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid project id")
		return
	}

	// a team can only read its own project
	if session.Role == models.RoleProject && session.UserID != projectID {
		pkghttp.WriteForbidden(w, "Access denied")
		return
	}

	project, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Project not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// ListMentors returns the mentors attached to a project
func (h *ProjectHandler) ListMentors(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid project id")
		return
	}

	mentors, err := h.service.ListMentors(r.Context(), projectID)
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

// AdvanceStage moves a project forward one stage, admin only
func (h *ProjectHandler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	h.moveStage(w, r, h.service.AdvanceStage)
}

// RevertStage moves a project back one stage, admin only
func (h *ProjectHandler) RevertStage(w http.ResponseWriter, r *http.Request) {
	h.moveStage(w, r, h.service.RevertStage)
}

func (h *ProjectHandler) moveStage(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, projectID, adminID int64) (*models.Project, error)) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	projectID, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid project id")
		return
	}

	project, err := move(r.Context(), projectID, session.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Project not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Stage transition not allowed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// AssignMentor attaches a mentor to a project, admin only
func (h *ProjectHandler) AssignMentor(w http.ResponseWriter, r *http.Request) {
	h.changeAssignment(w, r, h.service.AssignMentor, http.StatusCreated)
}

// UnassignMentor detaches a mentor from a project, admin only
func (h *ProjectHandler) UnassignMentor(w http.ResponseWriter, r *http.Request) {
	h.changeAssignment(w, r, h.service.UnassignMentor, http.StatusNoContent)
}

func (h *ProjectHandler) changeAssignment(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, mentorID, projectID, adminID int64) error, successStatus int) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	projectID, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid project id")
		return
	}

	mentorID, ok := idParam(chi.URLParam(r, "mentorID"))
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid mentor id")
		return
	}

	if err := change(r.Context(), mentorID, projectID, session.UserID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Assignment not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Mentor already assigned")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Unknown mentor or project")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(successStatus)
}
