package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"absher/internal/notification/models"
)

// InMemoryStore is the default append-only notification log. A single
// mutex serializes appends so concurrent scans cannot interleave a dedup
// check and append for the same session.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

// ListBySession returns the session's notifications, newest first.
func (s *InMemoryStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.notifications {
		if n.SessionID == sessionID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
