// Package session stores per-login session users in memory. Each session
// owns an independent copy of its template's service records; the map is
// the single shared structure and is guarded by a RWMutex.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"absher/internal/identity/models"
	"absher/pkg/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.SessionUser
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[uuid.UUID]*models.SessionUser)}
}

// Create clones the template user into a new session and returns its id.
func (s *InMemoryStore) Create(_ context.Context, template models.User, now time.Time) (uuid.UUID, error) {
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &models.SessionUser{
		SessionID: id,
		User:      template.Clone(),
		CreatedAt: now,
	}
	return id, nil
}

// Find returns a copy of the session user so callers cannot mutate store
// state outside UpdateServiceExpiry.
func (s *InMemoryStore) Find(_ context.Context, id uuid.UUID) (*models.SessionUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	su, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *su
	out.User = su.User.Clone()
	return &out, nil
}

// UpdateServiceExpiry advances a service's expiry. The new expiry must not
// move backwards; expiry dates only advance, and only through the renewal
// apply step.
func (s *InMemoryStore) UpdateServiceExpiry(_ context.Context, id uuid.UUID, kind models.ServiceKind, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	su, ok := s.sessions[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	svc := su.User.ServiceByKind(kind)
	if svc == nil || svc.ExpiresAt == nil {
		return sentinel.ErrNotFound
	}
	if expiresAt.Before(*svc.ExpiresAt) {
		return sentinel.ErrConflict
	}
	t := expiresAt
	svc.ExpiresAt = &t
	return nil
}

// Exists reports whether a session id is live.
func (s *InMemoryStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok, nil
}

// ListIDs returns the ids of all active sessions, for the periodic sweep.
func (s *InMemoryStore) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of active sessions.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
