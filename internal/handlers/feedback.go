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

// FeedbackServiceInterface defines the interface for comments and ratings
type FeedbackServiceInterface interface {
	PostComment(ctx context.Context, projectID int64, authorRole models.Role, authorID int64, body string) (*models.Comment, error)
	ListComments(ctx context.Context, projectID int64, viewerRole models.Role, viewerID int64, limit, offset int) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	RateProject(ctx context.Context, projectID, mentorID int64, score int, note string) (*models.Rating, error)
	ListRatings(ctx context.Context, projectID int64, viewerRole models.Role, viewerID int64) ([]*models.Rating, error)
}

// FeedbackHandler handles comment and rating HTTP requests
type FeedbackHandler struct {
	service FeedbackServiceInterface
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(service FeedbackServiceInterface) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// PostCommentRequest represents the request body for a new comment
type PostCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

// RateProjectRequest represents the request body for a stage rating
type RateProjectRequest struct {
	Score int    `json:"score" validate:"required,gte=1,lte=5"`
	Note  string `json:"note" validate:"max=2000"`
}

// CommentResponse is the JSON shape of a comment
type CommentResponse struct {
	ID         string    `json:"id"`
	ProjectID  int64     `json:"project_id"`
	AuthorRole string    `json:"author_role"`
	AuthorID   int64     `json:"author_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// RatingResponse is the JSON shape of a rating
type RatingResponse struct {
	ID        string    `json:"id"`
	ProjectID int64     `json:"project_id"`
	MentorID  int64     `json:"mentor_id"`
	Stage     string    `json:"stage"`
	Score     int       `json:"score"`
	Note      *string   `json:"note,omitempty"`
	RatedAt   time.Time `json:"rated_at"`
}

func toCommentResponse(comment *models.Comment) CommentResponse {
	return CommentResponse{
		ID:         comment.ID,
		ProjectID:  comment.ProjectID,
		AuthorRole: string(comment.AuthorRole),
		AuthorID:   comment.AuthorID,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
	}
}

func toRatingResponse(rating *models.Rating) RatingResponse {
	return RatingResponse{
		ID:        rating.ID,
		ProjectID: rating.ProjectID,
		MentorID:  rating.MentorID,
		Stage:     rating.Stage.String(),
		Score:     rating.Score,
		Note:      rating.Note,
		RatedAt:   rating.RatedAt,
	}
}

// PostComment adds a comment to a project
func (h *FeedbackHandler) PostComment(w http.ResponseWriter, r *http.Request) {
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

	var req PostCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.service.PostComment(r.Context(), projectID, session.Role, session.UserID, req.Body)
	if err != nil {
		writeFeedbackError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// ListComments returns a project's comments
func (h *FeedbackHandler) ListComments(w http.ResponseWriter, r *http.Request) {
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

	limit, offset := paginationParams(r)

	comments, err := h.service.ListComments(r.Context(), projectID, session.Role, session.UserID, limit, offset)
	if err != nil {
		writeFeedbackError(w, err)
		return
	}

	responses := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, toCommentResponse(comment))
	}
	pkghttp.WriteJSON(w, http.StatusOK, responses)
}

// DeleteComment removes a comment, admin only
func (h *FeedbackHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Comment not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RateProject records the calling mentor's score for a project's
// current stage
func (h *FeedbackHandler) RateProject(w http.ResponseWriter, r *http.Request) {
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

	var req RateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	rating, err := h.service.RateProject(r.Context(), projectID, session.UserID, req.Score, req.Note)
	if err != nil {
		writeFeedbackError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toRatingResponse(rating))
}

// ListRatings returns a project's ratings
func (h *FeedbackHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
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

	ratings, err := h.service.ListRatings(r.Context(), projectID, session.Role, session.UserID)
	if err != nil {
		writeFeedbackError(w, err)
		return
	}

	responses := make([]RatingResponse, 0, len(ratings))
	for _, rating := range ratings {
		responses = append(responses, toRatingResponse(rating))
	}
	pkghttp.WriteJSON(w, http.StatusOK, responses)
}

func writeFeedbackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Access denied")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Project not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
