// Package reminder detects expiring services and emits proactive SMS
// reminders, at most one per service per dedup window.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"absher/internal/expiry"
	identity "absher/internal/identity/models"
	nmodels "absher/internal/notification/models"
	"absher/internal/platform/metrics"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/sentinel"
)

// SessionStore lists and reads active sessions.
type SessionStore interface {
	Find(ctx context.Context, id uuid.UUID) (*identity.SessionUser, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// NotificationLog appends reminders and answers the dedup check.
type NotificationLog interface {
	Append(ctx context.Context, sessionID uuid.UUID, channel nmodels.Channel, message string, meta map[string]any) (nmodels.Notification, error)
	HasRecentSMS(ctx context.Context, sessionID uuid.UUID, serviceType string, window time.Duration, now time.Time) (bool, error)
}

// Composer produces the reminder text. Implementations may call an LLM;
// failures are contained to the one service being scanned.
type Composer interface {
	ReminderSMS(ctx context.Context, rc ReminderContext) (string, error)
}

// ReminderContext is the structured input handed to the composer.
type ReminderContext struct {
	UserName      string
	ServiceLabel  string
	ServiceStatus string
	DaysLeft      int
}

// Scanner walks one session's services and appends due reminders.
//
// Scans for the same session are serialized through a per-session mutex so
// a periodic sweep and an on-demand scan cannot both pass the dedup check
// and double-send. Scans for different sessions run freely in parallel.
type Scanner struct {
	sessions        SessionStore
	notifications   NotificationLog
	composer        Composer
	logger          *slog.Logger
	metrics         *metrics.Metrics
	threshold       time.Duration
	window          time.Duration
	composerTimeout time.Duration
	now             func() time.Time

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

type ScannerOption func(*Scanner)

func WithLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) ScannerOption {
	return func(s *Scanner) {
		s.metrics = m
	}
}

func WithThreshold(threshold time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.threshold = threshold
	}
}

func WithWindow(window time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.window = window
	}
}

func WithComposerTimeout(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.composerTimeout = d
	}
}

func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) {
		s.now = now
	}
}

// NewScanner constructs a Scanner with the default 3-day threshold and
// 7-day dedup window.
func NewScanner(sessions SessionStore, notifications NotificationLog, composer Composer, opts ...ScannerOption) (*Scanner, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification log is required")
	}
	if composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	s := &Scanner{
		sessions:        sessions,
		notifications:   notifications,
		composer:        composer,
		logger:          slog.Default(),
		threshold:       expiry.DefaultThreshold,
		window:          7 * 24 * time.Hour,
		composerTimeout: 10 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ScanSession evaluates every tracked service for one session and appends
// a reminder for each that is expired or expiring and has no SMS within
// the dedup window. A composer failure skips that one service; the rest
// of the scan continues.
func (s *Scanner) ScanSession(ctx context.Context, sessionID uuid.UUID) ([]nmodels.Notification, error) {
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown session")
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	now := s.now().UTC()
	var created []nmodels.Notification

	for _, svc := range session.User.Services {
		if svc.ExpiresAt == nil {
			continue
		}

		eval := expiry.Evaluate(*svc.ExpiresAt, now, s.threshold)
		if eval.Status == expiry.StatusValid {
			s.skip("valid")
			continue
		}

		recent, err := s.notifications.HasRecentSMS(ctx, sessionID, svc.Kind.String(), s.window, now)
		if err != nil {
			return created, fmt.Errorf("dedup check for %s: %w", svc.Kind, err)
		}
		if recent {
			s.skip("dedup")
			continue
		}

		text, err := s.composeReminder(ctx, session.User, svc, eval)
		if err != nil {
			// Contained per spec: one service's failure never aborts
			// the rest of the scan.
			s.skip("compose_failed")
			if s.metrics != nil {
				s.metrics.ComposerFailures.Inc()
			}
			s.logger.ErrorContext(ctx, "reminder composition failed",
				"session_id", sessionID.String(),
				"service_type", svc.Kind.String(),
				"error", err.Error(),
			)
			continue
		}

		n, err := s.notifications.Append(ctx, sessionID, nmodels.ChannelSMS, text, map[string]any{
			nmodels.MetaServiceType: svc.Kind.String(),
			nmodels.MetaExpiryDate:  eval.ExpiresAt.Format(time.RFC3339),
			nmodels.MetaDaysLeft:    eval.DaysLeft,
			nmodels.MetaSource:      "proactive_engine",
		})
		if err != nil {
			return created, fmt.Errorf("append reminder for %s: %w", svc.Kind, err)
		}

		if s.metrics != nil {
			s.metrics.RemindersSent.WithLabelValues(svc.Kind.String()).Inc()
		}
		s.logger.InfoContext(ctx, "proactive reminder sent",
			"session_id", sessionID.String(),
			"service_type", svc.Kind.String(),
			"phone_number", session.User.PhoneNumber,
			"days_left", eval.DaysLeft,
		)
		created = append(created, n)
	}

	return created, nil
}

func (s *Scanner) composeReminder(ctx context.Context, user identity.User, svc identity.ServiceRecord, eval expiry.Evaluation) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.composerTimeout)
	defer cancel()
	return s.composer.ReminderSMS(ctx, ReminderContext{
		UserName:      user.Name,
		ServiceLabel:  svc.Label,
		ServiceStatus: eval.Describe(),
		DaysLeft:      eval.DaysLeft,
	})
}

func (s *Scanner) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *Scanner) skip(reason string) {
	if s.metrics != nil {
		s.metrics.ReminderSkips.WithLabelValues(reason).Inc()
	}
}
