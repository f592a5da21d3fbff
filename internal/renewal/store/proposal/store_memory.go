// Package proposal stores live renewal proposals keyed by action id.
// Proposals expire after a short TTL and are consumed exactly once, which
// closes the replay gap where a stale or foreign action id could authorize
// a confirm.
package proposal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"absher/internal/renewal/models"
	"absher/pkg/sentinel"
)

type InMemoryStore struct {
	mu        sync.Mutex
	proposals map[uuid.UUID]models.Proposal
	now       func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		proposals: make(map[uuid.UUID]models.Proposal),
		now:       time.Now,
	}
}

// WithClock overrides the store clock for tests.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Save(_ context.Context, p models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.ActionID] = p
	return nil
}

// Consume removes and returns a live proposal. Expired proposals return
// sentinel.ErrExpired; unknown or already-consumed ids return
// sentinel.ErrNotFound.
func (s *InMemoryStore) Consume(_ context.Context, actionID uuid.UUID) (models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[actionID]
	if !ok {
		return models.Proposal{}, sentinel.ErrNotFound
	}
	delete(s.proposals, actionID)
	if s.now().After(p.ExpiresAt) {
		return models.Proposal{}, sentinel.ErrExpired
	}
	return p, nil
}
