package application

import (
	"fmt"
	"time"

	"shopify-sync-engine/internal/domain"
)

// CadenceUnit is the recurrence granularity derived from a configured
// sync interval.
type CadenceUnit int

const (
	CadenceSeconds CadenceUnit = iota
	CadenceMinutes
	CadenceHours
	CadenceDaily
)

// Cadence is a recurrence pattern: fire every N units, or once daily.
type Cadence struct {
	Unit CadenceUnit
	N    int
}

// IntervalToCadence maps a sync interval in seconds onto a cadence using
// a monotonic floor mapping: sub-minute intervals fire every N seconds,
// sub-hour every N minutes, sub-day every N hours, anything longer daily.
func IntervalToCadence(seconds int) Cadence {
	if seconds <= 0 {
		seconds = domain.DefaultSyncIntervalSeconds
	}
	switch {
	case seconds < 60:
		return Cadence{Unit: CadenceSeconds, N: seconds}
	case seconds < 3600:
		return Cadence{Unit: CadenceMinutes, N: seconds / 60}
	case seconds < 86400:
		return Cadence{Unit: CadenceHours, N: seconds / 3600}
	default:
		return Cadence{Unit: CadenceDaily, N: 1}
	}
}

// Interval returns the constant delay between firings.
func (c Cadence) Interval() time.Duration {
	switch c.Unit {
	case CadenceSeconds:
		return time.Duration(c.N) * time.Second
	case CadenceMinutes:
		return time.Duration(c.N) * time.Minute
	case CadenceHours:
		return time.Duration(c.N) * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (c Cadence) String() string {
	switch c.Unit {
	case CadenceSeconds:
		return fmt.Sprintf("every %ds", c.N)
	case CadenceMinutes:
		return fmt.Sprintf("every %dm", c.N)
	case CadenceHours:
		return fmt.Sprintf("every %dh", c.N)
	default:
		return "daily"
	}
}
