// Package clicker is the engine-facing edge of the click-automation
// loop: budget gating, quiet-hour scheduling, and pacing. Selector
// matching and DOM polling live outside this process entirely.
package clicker

import (
	"context"
	"time"

	"clickpulse/internal/config"
	"clickpulse/internal/statedb"
)

// Allow checks hourly/daily click budgets against the click log before
// a click is dispatched.
func Allow(ctx context.Context, db *statedb.DB, cfg config.ClickerConfig, now time.Time) (bool, error) {
	startHour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC)
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	hourCount, err := db.CountClicksWithin(ctx, startHour, startHour.Add(time.Hour))
	if err != nil {
		return false, err
	}
	dayCount, err := db.CountClicksWithin(ctx, startDay, startDay.Add(24*time.Hour))
	if err != nil {
		return false, err
	}
	if cfg.MaxPerHour > 0 && hourCount >= cfg.MaxPerHour {
		return false, nil
	}
	if cfg.MaxPerDay > 0 && dayCount >= cfg.MaxPerDay {
		return false, nil
	}
	return true, nil
}

// RecordClick appends a dispatched click to the log.
func RecordClick(ctx context.Context, db *statedb.DB, now time.Time, count int, ok bool) error {
	return db.PutClick(ctx, now, count, ok)
}
