// Package project re-maps UTC hour buckets into a local calendar given
// a minute-granularity UTC offset.
package project

import (
	"clickpulse/internal/history"
)

const (
	minutesPerDay = 24 * 60

	// MaxOffsetMinutes is the widest real-world UTC offset (±14 h).
	MaxOffsetMinutes = 14 * 60
)

// ClampOffset pins offsetMinutes to [-840, 840]. Wild offsets are
// clamped, never rejected.
func ClampOffset(offsetMinutes int) int {
	if offsetMinutes > MaxOffsetMinutes {
		return MaxOffsetMinutes
	}
	if offsetMinutes < -MaxOffsetMinutes {
		return -MaxOffsetMinutes
	}
	return offsetMinutes
}

// ShiftHour maps a UTC hour-of-day to its local hour and the day
// carry. Offsets need not be whole hours (+5:30, +5:45) and may push
// the hour into the previous or next local day.
func ShiftHour(hour, offsetMinutes int) (localHour, dayDelta int) {
	total := hour*60 + offsetMinutes
	dayDelta = total / minutesPerDay
	if total < 0 && total%minutesPerDay != 0 {
		dayDelta--
	}
	normalized := ((total % minutesPerDay) + minutesPerDay) % minutesPerDay
	return normalized / 60, dayDelta
}

// History projects every non-zero (day, hour, count) triple in the
// store into local-day keyed 24-slot arrays. Two UTC buckets may land
// in the same local slot; their counts sum. All-zero hours are skipped,
// which has no semantic effect since zero contributes nothing.
func History(s *history.Store, offsetMinutes int) map[string][]int {
	offsetMinutes = ClampOffset(offsetMinutes)
	out := make(map[string][]int)
	for _, key := range s.Keys() {
		b, ok := s.Get(key)
		if !ok {
			continue
		}
		for hour, count := range b.Hourly {
			if count == 0 {
				continue
			}
			localHour, dayDelta := ShiftHour(hour, offsetMinutes)
			localKey := history.ShiftKey(key, dayDelta)
			slots, ok := out[localKey]
			if !ok {
				slots = make([]int, 24)
				out[localKey] = slots
			}
			slots[localHour] += count
		}
	}
	return out
}
