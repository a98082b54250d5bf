package history

import (
	"sort"
	"time"
)

// MaxRetainedDays bounds the history store. Older buckets are evicted;
// the loss is documented behavior, not an error.
const MaxRetainedDays = 90

const dateKeyLayout = "2006-01-02"

// DayBucket holds one UTC calendar day of click activity.
// The JSON shape is the persisted blob contract and must stay stable.
type DayBucket struct {
	DateKey     string `json:"dateKey"`
	TotalClicks int    `json:"totalClicks"`
	Hourly      []int  `json:"hourly"`
	LastEventAt *int64 `json:"lastEventAt,omitempty"` // epoch ms
}

// DateKey formats t as a sortable YYYY-MM-DD key in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// ShiftKey returns the date key delta days after key. An unparseable
// key is returned unchanged; normalization should prevent that case.
func ShiftKey(key string, delta int) string {
	t, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, delta).Format(dateKeyLayout)
}

func zeroBucket(key string) DayBucket {
	return DayBucket{DateKey: key, Hourly: make([]int, 24)}
}

func copyBucket(b DayBucket) DayBucket {
	h := make([]int, 24)
	copy(h, b.Hourly)
	b.Hourly = h
	if b.LastEventAt != nil {
		ts := *b.LastEventAt
		b.LastEventAt = &ts
	}
	return b
}

// Store maps date keys to day buckets. Get/Snapshot return copies and
// Put/Update write whole buckets back, so no caller ever holds a live
// alias into the store. Access must be serialized by the caller.
type Store struct {
	buckets map[string]DayBucket
}

func NewStore() *Store {
	return &Store{buckets: make(map[string]DayBucket)}
}

func (s *Store) Len() int { return len(s.buckets) }

// Keys returns all date keys sorted ascending (chronological).
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.buckets))
	for k := range s.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a copy of the bucket for key.
func (s *Store) Get(key string) (DayBucket, bool) {
	b, ok := s.buckets[key]
	if !ok {
		return DayBucket{}, false
	}
	return copyBucket(b), true
}

// EnsureBucket returns the bucket for key, creating an all-zero one if
// absent. The returned bucket is a copy.
func (s *Store) EnsureBucket(key string) DayBucket {
	b, ok := s.buckets[key]
	if !ok {
		b = zeroBucket(key)
		s.buckets[key] = b
	}
	return copyBucket(b)
}

// Put stores a copy of b under its own date key.
func (s *Store) Put(b DayBucket) {
	if len(b.Hourly) != 24 {
		b = repairBucket(b)
	}
	s.buckets[b.DateKey] = copyBucket(b)
}

// Update applies fn to a copy of the bucket for key (created zero if
// absent) and writes the result back.
func (s *Store) Update(key string, fn func(*DayBucket)) {
	b := s.EnsureBucket(key)
	fn(&b)
	s.Put(b)
}

// Prune evicts the chronologically oldest buckets until at most maxDays
// remain. Returns the number of evicted buckets. Idempotent.
func (s *Store) Prune(maxDays int) int {
	if maxDays < 0 {
		maxDays = 0
	}
	excess := len(s.buckets) - maxDays
	if excess <= 0 {
		return 0
	}
	keys := s.Keys()
	for _, k := range keys[:excess] {
		delete(s.buckets, k)
	}
	return excess
}

// Snapshot deep-copies the store contents for persistence.
func (s *Store) Snapshot() map[string]DayBucket {
	out := make(map[string]DayBucket, len(s.buckets))
	for k, b := range s.buckets {
		out[k] = copyBucket(b)
	}
	return out
}
