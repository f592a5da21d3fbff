package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "absher/pkg/domain-errors"
)

// ServiceKind identifies a renewable government service.
type ServiceKind string

const (
	KindNationalID          ServiceKind = "national_id"
	KindDriverLicense       ServiceKind = "driver_license"
	KindPassport            ServiceKind = "passport"
	KindVehicleRegistration ServiceKind = "vehicle_registration"
)

// ParseServiceKind validates a wire value against the closed kind set.
func ParseServiceKind(s string) (ServiceKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "service type cannot be empty")
	}
	k := ServiceKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown service type: "+s)
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k ServiceKind) IsValid() bool {
	switch k {
	case KindNationalID, KindDriverLicense, KindPassport, KindVehicleRegistration:
		return true
	}
	return false
}

// Label returns the human-readable service name.
func (k ServiceKind) Label() string {
	switch k {
	case KindNationalID:
		return "National ID"
	case KindDriverLicense:
		return "Driver License"
	case KindPassport:
		return "Passport"
	case KindVehicleRegistration:
		return "Vehicle Registration"
	}
	return "Service"
}

// String returns the wire representation.
func (k ServiceKind) String() string {
	return string(k)
}

// AllServiceKinds lists every supported kind in display order.
func AllServiceKinds() []ServiceKind {
	return []ServiceKind{KindNationalID, KindDriverLicense, KindVehicleRegistration, KindPassport}
}

// ServiceRecord tracks one renewable service for a user. A nil ExpiresAt
// means the service is not tracked for this user.
type ServiceRecord struct {
	Kind      ServiceKind `json:"service_type"`
	Label     string      `json:"service_name"`
	ExpiresAt *time.Time  `json:"expiry_date,omitempty"`
}

// User is a template identity loaded at startup. Session users are deep
// copies of these; templates themselves are never mutated.
type User struct {
	NationalID   string          `json:"national_id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"password_hash"`
	Name         string          `json:"name"`
	PhoneNumber  string          `json:"phone_number"`
	Services     []ServiceRecord `json:"services"`
}

// Clone returns an independent deep copy. Session users must never share
// mutable service state with the template or with each other.
func (u User) Clone() User {
	services := make([]ServiceRecord, len(u.Services))
	for i, svc := range u.Services {
		services[i] = svc
		if svc.ExpiresAt != nil {
			t := *svc.ExpiresAt
			services[i].ExpiresAt = &t
		}
	}
	u.Services = services
	return u
}

// ServiceByKind returns a pointer into the user's service slice, or nil if
// the kind is not present.
func (u *User) ServiceByKind(kind ServiceKind) *ServiceRecord {
	for i := range u.Services {
		if u.Services[i].Kind == kind {
			return &u.Services[i]
		}
	}
	return nil
}

// SessionUser is a per-login clone of a template identity. It lives for the
// process lifetime; this demo never destroys sessions.
type SessionUser struct {
	SessionID uuid.UUID
	User      User
	CreatedAt time.Time
}
