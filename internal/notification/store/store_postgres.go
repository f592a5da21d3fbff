package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"absher/internal/notification/models"
)

// PostgresStore persists the notification log in PostgreSQL. Inserts only;
// the table carries no update or delete paths.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, n models.Notification) error {
	meta, err := json.Marshal(n.Meta)
	if err != nil {
		return fmt.Errorf("marshal notification meta: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, session_id, channel, message, created_at, meta)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.SessionID, string(n.Channel), n.Message, n.CreatedAt, meta,
	)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, channel, message, created_at, meta
		 FROM notifications
		 WHERE session_id = $1
		 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n       models.Notification
			channel string
			meta    []byte
		)
		if err := rows.Scan(&n.ID, &n.SessionID, &channel, &n.Message, &n.CreatedAt, &meta); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Channel = models.Channel(channel)
		if err := json.Unmarshal(meta, &n.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal notification meta: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
