// Package reaper implements the decay engine: a time budget that drains
// while the writer pauses and refills on legitimate keystrokes.
package reaper

import "time"

// Status is the externally visible engine state.
type Status string

const (
	StatusSafe     Status = "SAFE"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
	StatusDead     Status = "DEAD"
	StatusMockery  Status = "MOCKERY"
	StatusAscended Status = "ASCENDED"
)

// Budget thresholds. The cut points are user facing.
const (
	MaxBudget     = 15000 * time.Millisecond
	InitialBudget = 10000 * time.Millisecond
	WarningBelow  = 6000 * time.Millisecond
	CriticalBelow = 3000 * time.Millisecond
)

// DeriveStatus maps a remaining budget to its base status.
func DeriveStatus(timeLeft time.Duration) Status {
	switch {
	case timeLeft <= 0:
		return StatusDead
	case timeLeft < CriticalBelow:
		return StatusCritical
	case timeLeft < WarningBelow:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// IsOverride reports whether s is a transient status that masks derivation.
func (s Status) IsOverride() bool {
	return s == StatusMockery || s == StatusAscended
}
