package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"absher/internal/identity/models"
	"absher/internal/identity/service"
	"absher/internal/platform/middleware"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/httputil"
)

// Service defines the interface for login operations.
type Service interface {
	Login(ctx context.Context, username, password string) (service.LoginResult, error)
}

// Handler handles authentication endpoints.
type Handler struct {
	identity Service
	logger   *slog.Logger
}

func New(identity Service, logger *slog.Logger) *Handler {
	return &Handler{
		identity: identity,
		logger:   logger,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID      string                 `json:"user_id"`
	Name        string                 `json:"name"`
	AccessToken string                 `json:"access_token"`
	Services    []models.ServiceRecord `json:"services"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "username and password are required"))
		return
	}

	result, err := h.identity.Login(ctx, req.Username, req.Password)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			h.logger.WarnContext(ctx, "login rejected",
				"request_id", requestID,
				"username", req.Username,
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "login failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "login failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		UserID:      result.SessionID.String(),
		Name:        result.User.Name,
		AccessToken: result.AccessToken,
		Services:    result.User.Services,
	})
}
