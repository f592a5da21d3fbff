package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	identity "absher/internal/identity/models"
)

// Currency for all official fees in this demo.
const Currency = "SAR"

// DefaultFee is charged for service kinds missing from the fee table.
const DefaultFee = 150.0

// FeeFor returns the official renewal fee for a service kind. The switch
// is exhaustive over the closed kind set; anything else falls back to the
// default fee. In a real system this would call a pricing service.
func FeeFor(kind identity.ServiceKind) float64 {
	switch kind {
	case identity.KindNationalID:
		return 150.0
	case identity.KindDriverLicense:
		return 80.0
	case identity.KindPassport:
		return 164.0
	case identity.KindVehicleRegistration:
		return 100.0
	}
	return DefaultFee
}

// RenewalExtension is how far a successful renewal pushes the expiry past
// max(now, old expiry).
const RenewalExtension = 365 * 24 * time.Hour

// ProposedAction is the value returned to the caller for display and
// explicit confirmation. Nothing is mutated until the confirm step.
type ProposedAction struct {
	ID          uuid.UUID            `json:"id"`
	Type        string               `json:"type"`
	ServiceType identity.ServiceKind `json:"service_type"`
	Description string               `json:"description"`
	Fee         float64              `json:"amount"`
	Currency    string               `json:"currency"`
}

// Proposal is the server-side record of a proposed action, held in the
// proposal store under a short TTL so confirm can verify it is live and
// unconsumed.
type Proposal struct {
	ActionID    uuid.UUID            `json:"action_id"`
	SessionID   uuid.UUID            `json:"session_id"`
	ServiceType identity.ServiceKind `json:"service_type"`
	Fee         float64              `json:"fee"`
	Currency    string               `json:"currency"`
	Description string               `json:"description"`
	CreatedAt   time.Time            `json:"created_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

// Action converts the stored proposal back into its wire value.
func (p Proposal) Action() ProposedAction {
	return ProposedAction{
		ID:          p.ActionID,
		Type:        "renew_" + p.ServiceType.String(),
		ServiceType: p.ServiceType,
		Description: p.Description,
		Fee:         p.Fee,
		Currency:    p.Currency,
	}
}

// ConfirmStatus is the terminal state of a confirm call.
type ConfirmStatus string

const (
	ConfirmAccepted ConfirmStatus = "accepted"
	ConfirmRejected ConfirmStatus = "rejected"
)

// Outcome reports what a confirm call did. Applied distinguishes a real
// renewal from the graceful no-op taken when the service is no longer
// eligible; both return status accepted to the caller.
type Outcome struct {
	Status    ConfirmStatus
	Applied   bool
	Detail    string
	NewExpiry *time.Time
}

// DescribeProposal builds the human description shown in the confirm popup.
func DescribeProposal(kind identity.ServiceKind, fee float64) string {
	return fmt.Sprintf("Renew %s for %.0f %s. The expiry date will be extended by one year after payment.",
		kind.Label(), fee, Currency)
}
