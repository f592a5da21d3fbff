package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"absher/internal/notification/models"
	"absher/internal/platform/middleware"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/httputil"
)

// Service defines the interface for reading a session's notifications.
type Service interface {
	List(ctx context.Context, sessionID uuid.UUID) ([]models.Notification, error)
}

// Handler handles notification endpoints.
type Handler struct {
	notifications Service
	logger        *slog.Logger
}

func New(notifications Service, logger *slog.Logger) *Handler {
	return &Handler{
		notifications: notifications,
		logger:        logger,
	}
}

// Register registers the notification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications/{user_id}", h.handleList)
}

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Count         int                   `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	sessionID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id must be a valid session id"))
		return
	}

	list, err := h.notifications.List(ctx, sessionID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", requestID,
			"session_id", sessionID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list notifications"))
		return
	}
	if list == nil {
		list = []models.Notification{}
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Notifications: list,
		Count:         len(list),
	})
}
