// Package availability computes free time gaps from calendar busy intervals
// and derives bookable slot labels from them.
package availability

import (
	"sort"
	"time"

	"agendazap/pkg/model"
)

// FreeSlots returns the maximal chronological set of non-overlapping free
// sub-intervals of [windowStart, windowEnd) not covered by any busy interval.
// Busy intervals may overlap and arrive unsorted; entries missing a bound or
// with the bounds out of order are discarded. The union of the result with
// the clipped busy intervals reconstructs the window.
func FreeSlots(windowStart, windowEnd time.Time, busy []model.TimePeriod) []model.TimePeriod {
	valid := make([]model.TimePeriod, 0, len(busy))
	for _, b := range busy {
		if !b.Valid() {
			continue
		}
		valid = append(valid, b)
	}
	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	var free []model.TimePeriod
	cursor := windowStart

	for _, b := range valid {
		if b.Start.After(cursor) {
			free = append(free, model.TimePeriod{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}

	if cursor.Before(windowEnd) {
		free = append(free, model.TimePeriod{Start: cursor, End: windowEnd})
	}

	return free
}

// GenerateSlots emits one HH:mm wall-clock label per step within each free
// interval, as long as a booking of the given duration still fits before the
// interval ends. An empty result means no availability, not an error.
func GenerateSlots(free []model.TimePeriod, duration, step time.Duration) []string {
	if step <= 0 {
		step = time.Hour
	}

	var slots []string
	for _, interval := range free {
		for start := interval.Start; !start.Add(duration).After(interval.End); start = start.Add(step) {
			slots = append(slots, start.Format("15:04"))
		}
	}
	return slots
}
