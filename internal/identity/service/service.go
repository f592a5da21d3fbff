package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"absher/internal/chat/composer"
	chatsvc "absher/internal/chat/service"
	"absher/internal/expiry"
	"absher/internal/identity/models"
	nmodels "absher/internal/notification/models"
	"absher/internal/platform/metrics"
	dErrors "absher/pkg/domain-errors"
)

// TemplateStore resolves login credentials against the fixed user set.
type TemplateStore interface {
	FindByUsername(username string) (models.User, bool)
}

// SessionStore creates per-login session users.
type SessionStore interface {
	Create(ctx context.Context, template models.User, now time.Time) (uuid.UUID, error)
}

// TokenIssuer signs access tokens bound to a session.
type TokenIssuer interface {
	GenerateAccessToken(sessionID uuid.UUID, name string, expiresIn time.Duration) (string, error)
}

// Notifier records the welcome messages in the session's log.
type Notifier interface {
	Append(ctx context.Context, sessionID uuid.UUID, channel nmodels.Channel, message string, meta map[string]any) (nmodels.Notification, error)
}

// Composer generates the post-login summary pair.
type Composer interface {
	LoginSummary(ctx context.Context, sc composer.SummaryContext) (composer.LoginSummary, error)
}

// Service implements login: credential check against the template set,
// session creation, token issuance, and the asynchronous welcome summary.
type Service struct {
	templates       TemplateStore
	sessions        SessionStore
	tokens          TokenIssuer
	notifier        Notifier
	composer        Composer
	logger          *slog.Logger
	metrics         *metrics.Metrics
	tokenTTL        time.Duration
	threshold       time.Duration
	composerTimeout time.Duration
	now             func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

func WithThreshold(threshold time.Duration) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

func WithComposerTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.composerTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(templates TemplateStore, sessions SessionStore, tokens TokenIssuer, notifier Notifier, comp Composer, opts ...Option) (*Service, error) {
	if templates == nil {
		return nil, fmt.Errorf("template store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if comp == nil {
		return nil, fmt.Errorf("composer is required")
	}
	s := &Service{
		templates:       templates,
		sessions:        sessions,
		tokens:          tokens,
		notifier:        notifier,
		composer:        comp,
		logger:          slog.Default(),
		tokenTTL:        time.Hour,
		threshold:       expiry.DefaultThreshold,
		composerTimeout: 10 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoginResult is returned to the caller after a successful login.
type LoginResult struct {
	SessionID   uuid.UUID
	AccessToken string
	User        models.User
}

// Login checks credentials, clones the template user into a fresh session
// and issues an access token. The welcome summary is generated in the
// background so a slow or failing model never delays the login response.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, ok := s.templates.FindByUsername(username)
	if !ok {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}

	now := s.now().UTC()
	sessionID, err := s.sessions.Create(ctx, user, now)
	if err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.GenerateAccessToken(sessionID, user.Name, s.tokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SessionsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "session created",
		"session_id", sessionID.String(),
		"username", user.Username,
	)

	go s.sendLoginSummary(context.WithoutCancel(ctx), sessionID, user, now)

	return LoginResult{
		SessionID:   sessionID,
		AccessToken: token,
		User:        user,
	}, nil
}

// sendLoginSummary composes the in-app summary and SMS pair and appends
// both to the notification log. Best effort only.
func (s *Service) sendLoginSummary(ctx context.Context, sessionID uuid.UUID, user models.User, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, s.composerTimeout)
	defer cancel()

	summary, err := s.composer.LoginSummary(ctx, composer.SummaryContext{
		UserName: user.Name,
		Statuses: chatsvc.ServiceStatusLines(user, now, s.threshold),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "login summary composition failed",
			"session_id", sessionID.String(),
			"error", err.Error(),
		)
		return
	}

	meta := map[string]any{nmodels.MetaSource: "login_summary"}
	if summary.InApp != "" {
		if _, err := s.notifier.Append(ctx, sessionID, nmodels.ChannelInApp, summary.InApp, meta); err != nil {
			s.logger.ErrorContext(ctx, "failed to store in-app login summary",
				"session_id", sessionID.String(),
				"error", err.Error(),
			)
		}
	}
	if summary.SMS != "" {
		if _, err := s.notifier.Append(ctx, sessionID, nmodels.ChannelSMS, summary.SMS, meta); err != nil {
			s.logger.ErrorContext(ctx, "failed to store login summary sms",
				"session_id", sessionID.String(),
				"error", err.Error(),
			)
		}
		s.logger.InfoContext(ctx, "login summary sms sent",
			"session_id", sessionID.String(),
			"phone_number", user.PhoneNumber,
		)
	}
}
