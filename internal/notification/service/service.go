package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"absher/internal/notification/models"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/sentinel"
)

// Store is the append-only notification log.
type Store interface {
	Append(ctx context.Context, n models.Notification) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Notification, error)
}

// SessionChecker verifies that a session exists before exposing its log.
type SessionChecker interface {
	Exists(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// Service mediates access to the notification log.
type Service struct {
	store    Store
	sessions SessionChecker
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, sessions SessionChecker, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a new notification, filling in id and timestamp. The
// record is immutable once stored.
func (s *Service) Append(ctx context.Context, sessionID uuid.UUID, channel models.Channel, message string, meta map[string]any) (models.Notification, error) {
	if !channel.IsValid() {
		return models.Notification{}, dErrors.New(dErrors.CodeInvalidInput, "invalid notification channel")
	}
	if meta == nil {
		meta = map[string]any{}
	}
	n := models.Notification{
		ID:        uuid.New(),
		SessionID: sessionID,
		Channel:   channel,
		Message:   message,
		CreatedAt: s.now().UTC(),
		Meta:      meta,
	}
	if err := s.store.Append(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// List returns a session's notifications, newest first.
func (s *Service) List(ctx context.Context, sessionID uuid.UUID) ([]models.Notification, error) {
	if s.sessions != nil {
		ok, err := s.sessions.Exists(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown session")
		}
	}
	list, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown session")
		}
		return nil, err
	}
	return list, nil
}

// HasRecentSMS reports whether an SMS reminder for (session, service kind)
// exists within the dedup window ending at now.
func (s *Service) HasRecentSMS(ctx context.Context, sessionID uuid.UUID, serviceType string, window time.Duration, now time.Time) (bool, error) {
	list, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	cutoff := now.Add(-window)
	for _, n := range list {
		if n.Channel != models.ChannelSMS {
			continue
		}
		st, ok := n.ServiceType()
		if !ok || st != serviceType {
			continue
		}
		if n.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}
