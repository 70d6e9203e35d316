package model

import "time"

// TimePeriod is a transient [Start, End) interval. It is used both for busy
// intervals reported by the calendar and for the free gaps computed from
// them; it is never persisted.
type TimePeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the period has both bounds and positive length.
func (p TimePeriod) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && p.End.After(p.Start)
}
