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

// NotificationServiceInterface defines the interface for inbox access
type NotificationServiceInterface interface {
	List(ctx context.Context, role models.Role, recipientID int64, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id string, role models.Role, recipientID int64) error
}

// NotificationHandler handles inbox HTTP requests
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// NotificationResponse is the JSON shape of an inbox entry
type NotificationResponse struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the caller's inbox, newest first
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit, offset := paginationParams(r)

	notifications, err := h.service.List(r.Context(), session.Role, session.UserID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, NotificationResponse{
			ID:        n.ID,
			EventType: n.EventType,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	pkghttp.WriteJSON(w, http.StatusOK, responses)
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id"), session.Role, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Notification not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
