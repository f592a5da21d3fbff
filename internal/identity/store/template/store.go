// Package template loads the fixed template identity set from JSON.
// Template users are read-only after startup; logins clone them into
// independent session users.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"absher/internal/identity/models"
)

// Store holds template users keyed by national id.
type Store struct {
	byNationalID map[string]models.User
	byUsername   map[string]models.User
}

// Load reads and validates the template set. Any parse or validation
// failure is returned so main can refuse to start serving.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template users: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Store from raw JSON. Split from Load so tests can feed
// literals.
func Parse(raw []byte) (*Store, error) {
	var users []models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("parse template users: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("template user set is empty")
	}

	s := &Store{
		byNationalID: make(map[string]models.User, len(users)),
		byUsername:   make(map[string]models.User, len(users)),
	}
	for i, u := range users {
		if u.NationalID == "" || u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("template user %d: national_id, username and password_hash are required", i)
		}
		for _, svc := range u.Services {
			if !svc.Kind.IsValid() {
				return nil, fmt.Errorf("template user %s: invalid service type %q", u.NationalID, svc.Kind)
			}
		}
		key := strings.ToLower(u.Username)
		if _, dup := s.byUsername[key]; dup {
			return nil, fmt.Errorf("template user %s: duplicate username %q", u.NationalID, u.Username)
		}
		s.byNationalID[u.NationalID] = u
		s.byUsername[key] = u
	}
	return s, nil
}

// FindByUsername looks up a template user for login. Matching is
// case-insensitive.
func (s *Store) FindByUsername(username string) (models.User, bool) {
	u, ok := s.byUsername[strings.ToLower(username)]
	return u, ok
}

// Count returns the number of template users loaded.
func (s *Store) Count() int {
	return len(s.byNationalID)
}
