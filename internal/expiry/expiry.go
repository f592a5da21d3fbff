// Package expiry classifies service expiry dates against the current time.
// Evaluation is a pure function: no clock reads, no side effects, stable
// under repeated calls with the same inputs.
package expiry

import (
	"fmt"
	"time"
)

// Status is the expiry classification of a service.
type Status string

const (
	StatusExpired  Status = "EXPIRED"
	StatusExpiring Status = "EXPIRING"
	StatusValid    Status = "VALID"
)

// DefaultThreshold is the window before expiry in which a service counts
// as EXPIRING.
const DefaultThreshold = 3 * 24 * time.Hour

const day = 24 * time.Hour

// Evaluation is the result of classifying one expiry date.
type Evaluation struct {
	Status Status

	// DaysLeft is the whole days until expiry, negative once expired.
	// Uses floor division, so 2.5 days remaining reports 2 and 0.5 days
	// past expiry reports -1.
	DaysLeft int

	// ExpiresAt is the evaluated expiry normalized to UTC.
	ExpiresAt time.Time
}

// Evaluate classifies expiresAt relative to now:
//
//	EXPIRED  when expiresAt < now
//	EXPIRING when 0 <= expiresAt-now <= threshold
//	VALID    when expiresAt-now > threshold
//
// Both times are normalized to UTC before comparison, so expiry values
// parsed without an explicit zone compare correctly against an aware now.
// An expiry exactly equal to now classifies EXPIRING with 0 days left.
func Evaluate(expiresAt, now time.Time, threshold time.Duration) Evaluation {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	expiresAt = expiresAt.UTC()
	remaining := expiresAt.Sub(now.UTC())

	var status Status
	switch {
	case remaining < 0:
		status = StatusExpired
	case remaining <= threshold:
		status = StatusExpiring
	default:
		status = StatusValid
	}

	return Evaluation{
		Status:    status,
		DaysLeft:  floorDays(remaining),
		ExpiresAt: expiresAt,
	}
}

// DaysElapsed reports how many whole days ago an expired service lapsed.
// Zero for anything not yet expired.
func (e Evaluation) DaysElapsed() int {
	if e.Status != StatusExpired {
		return 0
	}
	return -e.DaysLeft
}

// Describe renders the evaluation for message composition and agent
// context, mirroring the status lines shown to the user.
func (e Evaluation) Describe() string {
	date := e.ExpiresAt.Format("2006-01-02")
	switch e.Status {
	case StatusExpired:
		return fmt.Sprintf("EXPIRED %d day(s) ago (on %s).", e.DaysElapsed(), date)
	case StatusExpiring:
		return fmt.Sprintf("EXPIRING in %d day(s), on %s.", e.DaysLeft, date)
	case StatusValid:
		return fmt.Sprintf("VALID, expires in %d day(s) on %s.", e.DaysLeft, date)
	}
	return fmt.Sprintf("UNKNOWN status for expiry on %s.", date)
}

// Eligible reports whether the service may be renewed: only expired or
// expiring services qualify.
func (e Evaluation) Eligible() bool {
	return e.Status == StatusExpired || e.Status == StatusExpiring
}

func floorDays(d time.Duration) int {
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}
