package license

import "time"

type Status string

const (
	StatusAvailable Status = "available"
	StatusActive    Status = "active"
	StatusExpiring  Status = "expiring"
	StatusExpired   Status = "expired"
)

// ExpiringWindow is the exact elapsed time before expiry during which a
// license is reported as expiring. The boundary is inclusive.
const ExpiringWindow = 7 * 24 * time.Hour

// Classify derives the display status of a license at a given instant.
// The clock is passed in explicitly; Classify never reads ambient time.
// Exactly one status applies to every record at every instant: expired wins
// over expiring, expiring wins over the hardware-binding distinction.
func Classify(l *License, now time.Time) Status {
	if l.ExpiresAt.Before(now) {
		return StatusExpired
	}
	if l.ExpiresAt.Sub(now) <= ExpiringWindow {
		return StatusExpiring
	}
	if l.HWID.Valid {
		return StatusActive
	}
	return StatusAvailable
}

// Rank fixes the ordinal used when sorting by status:
// available < active < expiring < expired.
func (s Status) Rank() int {
	switch s {
	case StatusAvailable:
		return 0
	case StatusActive:
		return 1
	case StatusExpiring:
		return 2
	case StatusExpired:
		return 3
	}
	return 4
}
