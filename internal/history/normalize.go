package history

import (
	"encoding/json"
	"strconv"
)

// FromSnapshot builds a store from a typed snapshot, repairing every
// bucket on the way in.
func FromSnapshot(snap map[string]DayBucket) *Store {
	s := NewStore()
	for key, b := range snap {
		b.DateKey = key
		s.Put(repairBucket(b))
	}
	return s
}

// FromRaw rebuilds a store from a loosely decoded JSON blob. Legacy or
// malformed bucket shapes (missing hourly, wrong length, non-numeric
// totals) are silently repaired rather than rejected: lost history is
// worse than approximate history. Always succeeds.
func FromRaw(raw map[string]any) *Store {
	s := NewStore()
	for key, v := range raw {
		b := zeroBucket(key)
		m, ok := v.(map[string]any)
		if ok {
			b.TotalClicks = coerceInt(m["totalClicks"])
			if hours, ok := m["hourly"].([]any); ok {
				for i := 0; i < len(hours) && i < 24; i++ {
					b.Hourly[i] = coerceInt(hours[i])
				}
			}
			if ts, ok := m["lastEventAt"]; ok && ts != nil {
				ms := int64(coerceInt(ts))
				b.LastEventAt = &ms
			}
		}
		s.Put(b)
	}
	return s
}

// Normalize repairs every bucket in place so the store invariants hold
// before queries or ingestion run. Idempotent.
func (s *Store) Normalize() {
	for key, b := range s.buckets {
		b.DateKey = key
		s.buckets[key] = repairBucket(b)
	}
}

// repairBucket rebuilds a malformed hourly array by copying existing
// values at matching indices and zero-filling the rest, and clamps
// negative counters to zero.
func repairBucket(b DayBucket) DayBucket {
	if len(b.Hourly) != 24 {
		h := make([]int, 24)
		copy(h, b.Hourly)
		b.Hourly = h
	}
	for i, v := range b.Hourly {
		if v < 0 {
			b.Hourly[i] = 0
		}
	}
	if b.TotalClicks < 0 {
		b.TotalClicks = 0
	}
	return b
}

// coerceInt extracts an integer from whatever a JSON decoder produced,
// defaulting to 0 on anything non-numeric.
func coerceInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return int(f)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int(f)
	default:
		return 0
	}
}
