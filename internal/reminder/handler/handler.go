package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	nmodels "absher/internal/notification/models"
	"absher/internal/platform/middleware"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/httputil"
)

// Scanner defines the interface for an on-demand reminder scan.
type Scanner interface {
	ScanSession(ctx context.Context, sessionID uuid.UUID) ([]nmodels.Notification, error)
}

// Sweeper runs a full sweep across every active session.
type Sweeper interface {
	RunOnce(ctx context.Context)
}

// Handler exposes the manual trigger for the proactive engine.
type Handler struct {
	scanner Scanner
	sweeper Sweeper
	logger  *slog.Logger
}

func New(scanner Scanner, sweeper Sweeper, logger *slog.Logger) *Handler {
	return &Handler{
		scanner: scanner,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Register registers the proactive trigger route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/run-proactive", h.handleRunProactive)
}

type runRequest struct {
	UserID string `json:"user_id"`
}

type runResponse struct {
	Status        string                 `json:"status"`
	Notifications []nmodels.Notification `json:"notifications"`
	Count         int                    `json:"count"`
}

// handleRunProactive scans one session when user_id is given, otherwise
// sweeps every active session. The demo frontend uses the single-session
// form; the sweep form backs manual operations.
func (h *Handler) handleRunProactive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	// An empty body means a full sweep, so decoding is lenient there.
	var req runRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && r.ContentLength > 0 {
		httputil.WriteError(w, err)
		return
	}

	if req.UserID == "" {
		h.sweeper.RunOnce(ctx)
		httputil.WriteJSON(w, http.StatusOK, runResponse{
			Status:        "sweep_completed",
			Notifications: []nmodels.Notification{},
		})
		return
	}

	sessionID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id must be a valid session id"))
		return
	}

	created, err := h.scanner.ScanSession(ctx, sessionID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "proactive scan failed",
			"request_id", requestID,
			"session_id", sessionID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "proactive scan failed"))
		return
	}
	if created == nil {
		created = []nmodels.Notification{}
	}

	httputil.WriteJSON(w, http.StatusOK, runResponse{
		Status:        "completed",
		Notifications: created,
		Count:         len(created),
	})
}
