package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"absher/internal/chat/service"
	"absher/internal/platform/middleware"
	rmodels "absher/internal/renewal/models"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/httputil"
)

// Service defines the interface for chat operations.
type Service interface {
	Chat(ctx context.Context, sessionID uuid.UUID, message string) (service.Response, error)
}

// Handler handles the assistant chat endpoint.
type Handler struct {
	chat   Service
	logger *slog.Logger
}

func New(chat Service, logger *slog.Logger) *Handler {
	return &Handler{
		chat:   chat,
		logger: logger,
	}
}

// Register registers the chat route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply          string                  `json:"reply"`
	ProposedAction *rmodels.ProposedAction `json:"proposed_action,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req chatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id must be a valid session id"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "message is required"))
		return
	}

	resp, err := h.chat.Chat(ctx, sessionID, req.Message)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) || dErrors.Is(err, dErrors.CodeUnavailable) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "chat turn failed",
			"request_id", requestID,
			"session_id", sessionID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "chat failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, chatResponse{
		Reply:          resp.Reply,
		ProposedAction: resp.Proposed,
	})
}
