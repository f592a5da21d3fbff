package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	identity "absher/internal/identity/models"
	"absher/internal/platform/middleware"
	"absher/internal/renewal/models"
	"absher/internal/renewal/service"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/httputil"
)

// Service defines the interface for the renewal workflow.
type Service interface {
	Propose(ctx context.Context, sessionID uuid.UUID, kind identity.ServiceKind) (models.ProposedAction, error)
	Confirm(ctx context.Context, req service.ConfirmRequest) (models.Outcome, error)
}

// Handler handles the propose and confirm endpoints.
type Handler struct {
	renewals Service
	logger   *slog.Logger
}

func New(renewals Service, logger *slog.Logger) *Handler {
	return &Handler{
		renewals: renewals,
		logger:   logger,
	}
}

// Register registers the renewal routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/propose-renewal", h.handlePropose)
	r.Post("/confirm-action", h.handleConfirm)
}

type proposeRequest struct {
	UserID      string `json:"user_id"`
	ServiceType string `json:"service_type"`
}

type proposeResponse struct {
	ProposedAction models.ProposedAction `json:"proposed_action"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req proposeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id must be a valid session id"))
		return
	}
	kind, err := identity.ParseServiceKind(req.ServiceType)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown service_type"))
		return
	}

	action, err := h.renewals.Propose(ctx, sessionID, kind)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "propose renewal failed",
			"request_id", requestID,
			"session_id", sessionID.String(),
			"service_type", kind.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to propose renewal"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, proposeResponse{ProposedAction: action})
}

type confirmRequest struct {
	UserID      string `json:"user_id"`
	ActionID    string `json:"action_id"`
	ServiceType string `json:"service_type"`
	Accepted    *bool  `json:"accepted"`
}

type confirmResponse struct {
	Status        models.ConfirmStatus `json:"status"`
	Applied       bool                 `json:"applied"`
	Detail        string               `json:"detail"`
	NewExpiryDate string               `json:"new_expiry_date,omitempty"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req confirmRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id must be a valid session id"))
		return
	}
	kind, err := identity.ParseServiceKind(req.ServiceType)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown service_type"))
		return
	}
	if req.Accepted == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "accepted is required"))
		return
	}

	// action_id is optional; when present it must parse.
	actionID := uuid.Nil
	if req.ActionID != "" {
		actionID, err = uuid.Parse(req.ActionID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "action_id must be a valid id"))
			return
		}
	}

	outcome, err := h.renewals.Confirm(ctx, service.ConfirmRequest{
		SessionID:   sessionID,
		ActionID:    actionID,
		ServiceType: kind,
		Accepted:    *req.Accepted,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "confirm action failed",
			"request_id", requestID,
			"session_id", sessionID.String(),
			"action_id", req.ActionID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to confirm action"))
		return
	}

	resp := confirmResponse{
		Status:  outcome.Status,
		Applied: outcome.Applied,
		Detail:  outcome.Detail,
	}
	if outcome.NewExpiry != nil {
		resp.NewExpiryDate = outcome.NewExpiry.Format(time.RFC3339)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
