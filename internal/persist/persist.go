// Package persist coalesces state writes behind an explicit dirty
// flag. An unflushed increment at crash time is a documented data-loss
// window; the blob itself can never be torn (single-statement upsert).
package persist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"clickpulse/internal/logging"
	"clickpulse/internal/metrics"
	"clickpulse/internal/statedb"
	"clickpulse/internal/tracker"
)

// DefaultFlushInterval is the fixed debounce delay between flushes.
const DefaultFlushInterval = 5 * time.Second

// Saver owns the write-intent flag for one tracker. The flag is the
// only state shared across goroutines; the tracker itself stays under
// the caller's single-writer rule.
type Saver struct {
	db *statedb.DB
	tr *tracker.Tracker

	mu    sync.Mutex
	dirty bool
}

func NewSaver(db *statedb.DB, tr *tracker.Tracker) *Saver {
	return &Saver{db: db, tr: tr}
}

// MarkDirty arms the next flush.
func (s *Saver) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Dirty reports whether an unflushed write is pending.
func (s *Saver) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush persists the tracker snapshot if the flag is armed. A failed
// save leaves the flag armed so the next tick retries.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	blob, err := json.Marshal(s.tr.Snapshot())
	if err != nil {
		return err
	}
	start := time.Now()
	if err := s.db.SaveState(ctx, blob); err != nil {
		metrics.SaveErrors.Inc()
		return err
	}
	metrics.ObserveSaveDuration(start)
	metrics.StateSaves.Inc()

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	return nil
}

// Run flushes on a fixed ticker until ctx is cancelled, then makes one
// final flush attempt so a clean shutdown loses nothing.
func (s *Saver) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.Flush(flushCtx); err != nil {
				logging.Error("final_flush_error", map[string]any{"error": err.Error()})
			}
			logging.Info("saver_stop", nil)
			return ctx.Err()
		case <-t.C:
			if err := s.Flush(ctx); err != nil {
				logging.Error("flush_error", map[string]any{"error": err.Error()})
			}
		}
	}
}
