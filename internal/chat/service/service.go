package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"absher/internal/chat/composer"
	"absher/internal/expiry"
	identity "absher/internal/identity/models"
	nmodels "absher/internal/notification/models"
	rmodels "absher/internal/renewal/models"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/sentinel"
)

const maxNotificationContext = 5

// SessionStore reads session users.
type SessionStore interface {
	Find(ctx context.Context, id uuid.UUID) (*identity.SessionUser, error)
}

// NotificationLog lists a session's notifications, newest first.
type NotificationLog interface {
	List(ctx context.Context, sessionID uuid.UUID) ([]nmodels.Notification, error)
}

// Renewals is the propose side of the renewal workflow.
type Renewals interface {
	Propose(ctx context.Context, sessionID uuid.UUID, kind identity.ServiceKind) (rmodels.ProposedAction, error)
}

// Composer generates the assistant reply.
type Composer interface {
	Reply(ctx context.Context, rc composer.ReplyContext) (string, error)
}

// Service orchestrates one chat turn: build context, detect renewal
// intent, attach a proposal when intent is found, and compose the reply.
// The proposal carries no approval; mutation happens only after the user
// confirms through the separate confirm endpoint.
type Service struct {
	sessions      SessionStore
	notifications NotificationLog
	renewals      Renewals
	composer      Composer
	logger        *slog.Logger
	threshold     time.Duration
	replyTimeout  time.Duration
	now           func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithThreshold(threshold time.Duration) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

func WithReplyTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.replyTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(sessions SessionStore, notifications NotificationLog, renewals Renewals, comp Composer, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification log is required")
	}
	if renewals == nil {
		return nil, fmt.Errorf("renewal service is required")
	}
	if comp == nil {
		return nil, fmt.Errorf("composer is required")
	}
	s := &Service{
		sessions:      sessions,
		notifications: notifications,
		renewals:      renewals,
		composer:      comp,
		logger:        slog.Default(),
		threshold:     expiry.DefaultThreshold,
		replyTimeout:  10 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Response is one chat turn's result.
type Response struct {
	Reply    string
	Proposed *rmodels.ProposedAction
}

// Chat answers one user message for a session.
func (s *Service) Chat(ctx context.Context, sessionID uuid.UUID, message string) (Response, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Response{}, dErrors.New(dErrors.CodeNotFound, "unknown session")
		}
		return Response{}, fmt.Errorf("find session: %w", err)
	}

	now := s.now().UTC()
	statuses := ServiceStatusLines(session.User, now, s.threshold)
	history := s.notificationContext(ctx, sessionID)

	var proposed *rmodels.ProposedAction
	if kind, ok := s.detectRenewalIntent(message, session.User, now); ok {
		action, err := s.renewals.Propose(ctx, sessionID, kind)
		if err != nil {
			// The chat turn still answers; the popup just does not appear.
			s.logger.ErrorContext(ctx, "renewal propose failed during chat",
				"session_id", sessionID.String(),
				"service_type", kind.String(),
				"error", err.Error(),
			)
		} else {
			proposed = &action
		}
	}

	replyCtx, cancel := context.WithTimeout(ctx, s.replyTimeout)
	defer cancel()
	reply, err := s.composer.Reply(replyCtx, composer.ReplyContext{
		UserName:      session.User.Name,
		Message:       message,
		Statuses:      statuses,
		Notifications: history,
	})
	if err != nil {
		return Response{}, dErrors.Wrap(dErrors.CodeUnavailable, "assistant is temporarily unavailable", err)
	}

	return Response{Reply: reply, Proposed: proposed}, nil
}

// ServiceStatusLines renders one status line per tracked service, in
// display order. Shared with the login summary flow.
func ServiceStatusLines(user identity.User, now time.Time, threshold time.Duration) []string {
	var lines []string
	for _, svc := range user.Services {
		if svc.ExpiresAt == nil {
			continue
		}
		eval := expiry.Evaluate(*svc.ExpiresAt, now, threshold)
		lines = append(lines, fmt.Sprintf("%s: %s", svc.Label, eval.Describe()))
	}
	if len(lines) == 0 {
		return []string{"User has no registered services."}
	}
	return lines
}

func (s *Service) notificationContext(ctx context.Context, sessionID uuid.UUID) []string {
	list, err := s.notifications.List(ctx, sessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "notification context unavailable",
			"session_id", sessionID.String(),
			"error", err.Error(),
		)
		return nil
	}
	if len(list) > maxNotificationContext {
		list = list[:maxNotificationContext]
	}
	var lines []string
	for _, n := range list {
		lines = append(lines, fmt.Sprintf("- [%s] via %s: %s",
			n.CreatedAt.Format(time.RFC3339), strings.ToUpper(string(n.Channel)), n.Message))
	}
	return lines
}

var renewalWords = []string{"renew", "renewal", "تجديد", "جدد"}

var kindKeywords = map[identity.ServiceKind][]string{
	identity.KindNationalID:          {"national id", "iqama", "identity", "هوية", "إقامة", "الهوية"},
	identity.KindDriverLicense:       {"license", "licence", "driving", "رخصة", "القيادة"},
	identity.KindPassport:            {"passport", "جواز"},
	identity.KindVehicleRegistration: {"vehicle", "registration", "istimara", "مركبة", "استمارة"},
}

// detectRenewalIntent finds an explicit renewal request in the message.
// When the message names no service, a single eligible service counts as
// the obvious target; with several eligible services the assistant asks
// instead of guessing, so no proposal is attached.
func (s *Service) detectRenewalIntent(message string, user identity.User, now time.Time) (identity.ServiceKind, bool) {
	lower := strings.ToLower(message)

	wantsRenewal := false
	for _, w := range renewalWords {
		if strings.Contains(lower, w) {
			wantsRenewal = true
			break
		}
	}
	if !wantsRenewal {
		return "", false
	}

	for _, kind := range identity.AllServiceKinds() {
		for _, kw := range kindKeywords[kind] {
			if strings.Contains(lower, kw) {
				return kind, true
			}
		}
	}

	var eligible []identity.ServiceKind
	for _, svc := range user.Services {
		if svc.ExpiresAt == nil {
			continue
		}
		if expiry.Evaluate(*svc.ExpiresAt, now, s.threshold).Eligible() {
			eligible = append(eligible, svc.Kind)
		}
	}
	if len(eligible) == 1 {
		return eligible[0], true
	}
	return "", false
}
