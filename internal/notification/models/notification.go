package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "absher/pkg/domain-errors"
)

// Channel is the delivery channel for a notification.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// IsValid checks if the channel is one of the supported values.
func (c Channel) IsValid() bool {
	return c == ChannelSMS || c == ChannelInApp
}

// ParseChannel validates a wire value.
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid channel: must be 'sms' or 'in_app'")
	}
	return c, nil
}

// Metadata keys recorded on reminder notifications. SMS reminders must
// carry MetaServiceType for the dedup window check.
const (
	MetaServiceType = "service_type"
	MetaExpiryDate  = "expiry_date"
	MetaDaysLeft    = "days_left"
	MetaSource      = "source"
)

// Notification is an immutable record of a message sent about a session
// user's services. The log is append-only: records are never mutated or
// deleted.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	SessionID uuid.UUID      `json:"user_id"`
	Channel   Channel        `json:"channel"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"created_at"`
	Meta      map[string]any `json:"meta"`
}

// ServiceType returns the service kind recorded in metadata, if any.
func (n Notification) ServiceType() (string, bool) {
	v, ok := n.Meta[MetaServiceType].(string)
	return v, ok
}
