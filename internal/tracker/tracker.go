// Package tracker is the ingestion path: running counters plus the
// bucketed history store behind them.
//
// Day boundaries are split on purpose: history buckets key on the UTC
// calendar day of each event, while the "today" counter rolls over at
// local midnight derived from the reporting offset. Unifying them
// would silently move one boundary or the other.
package tracker

import (
	"encoding/json"
	"time"

	"clickpulse/internal/history"
	"clickpulse/internal/project"
)

// Counters are the simple running tallies outside the bucketed
// history. All timestamps are epoch milliseconds in the blob.
type Counters struct {
	Lifetime    int    `json:"lifetime"`
	Today       int    `json:"today"`
	TodayKey    string `json:"todayKey"`
	Session     int    `json:"session"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	LastClickAt *int64 `json:"lastClickAt,omitempty"`
}

// State is the serializable shape handed to the storage collaborator.
type State struct {
	Counters Counters                     `json:"counters"`
	History  map[string]history.DayBucket `json:"history"`
}

// Tracker ingests click events. Callers must serialize access;
// concurrent mutation of one Tracker is undefined.
type Tracker struct {
	store          *history.Store
	counters       Counters
	offsetMinutes  int
	historyEnabled bool
}

func New(offsetMinutes int) *Tracker {
	return &Tracker{
		store:          history.NewStore(),
		offsetMinutes:  project.ClampOffset(offsetMinutes),
		historyEnabled: true,
	}
}

// FromState restores a tracker from a decoded state. The history is
// normalized before first use.
func FromState(st State, offsetMinutes int) *Tracker {
	t := New(offsetMinutes)
	t.counters = st.Counters
	t.store = history.FromSnapshot(st.History)
	t.store.Prune(history.MaxRetainedDays)
	return t
}

// DecodeState leniently decodes a persisted blob. Malformed history
// buckets are repaired; unreadable counters fall back to zero. Never
// fails: a blob we cannot read is an empty state, not an error.
func DecodeState(blob []byte) State {
	var raw struct {
		Counters json.RawMessage `json:"counters"`
		History  map[string]any  `json:"history"`
	}
	st := State{History: map[string]history.DayBucket{}}
	if err := json.Unmarshal(blob, &raw); err != nil {
		return st
	}
	if len(raw.Counters) > 0 {
		_ = json.Unmarshal(raw.Counters, &st.Counters)
	}
	st.History = history.FromRaw(raw.History).Snapshot()
	return st
}

// SetHistoryEnabled toggles bucketed history writes. Counters keep
// running either way.
func (t *Tracker) SetHistoryEnabled(on bool) { t.historyEnabled = on }

// RecordClicks ingests one click event. count must be non-negative
// (the caller boundary rejects anything else); count == 0 still
// updates the success/fail tallies. Returns the number of buckets the
// retention prune evicted.
func (t *Tracker) RecordClicks(count int, ts time.Time, successDelta, failDelta int) int {
	t.counters.Successful += successDelta
	t.counters.Failed += failDelta
	if count < 0 {
		count = 0
	}

	localKey := history.DateKey(ts.UTC().Add(time.Duration(t.offsetMinutes) * time.Minute))
	if t.counters.TodayKey != localKey {
		t.counters.TodayKey = localKey
		t.counters.Today = 0
	}
	t.counters.Lifetime += count
	t.counters.Today += count
	t.counters.Session += count
	ms := ts.UTC().UnixMilli()
	t.counters.LastClickAt = &ms

	if !t.historyEnabled {
		return 0
	}
	key := history.DateKey(ts)
	hour := ts.UTC().Hour()
	t.store.Update(key, func(b *history.DayBucket) {
		b.Hourly[hour] += count
		b.TotalClicks += count
		b.LastEventAt = &ms
	})
	return t.store.Prune(history.MaxRetainedDays)
}

// Accuracy is successful/(successful+failed) as a percentage, exactly
// 100 when nothing has been tallied yet.
func (t *Tracker) Accuracy() float64 {
	total := t.counters.Successful + t.counters.Failed
	if total == 0 {
		return 100
	}
	return float64(t.counters.Successful) / float64(total) * 100
}

// ResetSession zeroes the session counter only.
func (t *Tracker) ResetSession() { t.counters.Session = 0 }

func (t *Tracker) Counters() Counters { return t.counters }

// Store exposes the history store for projection/query paths.
func (t *Tracker) Store() *history.Store { return t.store }

// Snapshot deep-copies the full state for persistence.
func (t *Tracker) Snapshot() State {
	return State{Counters: t.counters, History: t.store.Snapshot()}
}
