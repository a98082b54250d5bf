package tracker

import (
	"context"
	"strconv"
	"time"

	"clickpulse/internal/statedb"
)

const rebuildCursor = "rebuild:last_ts"

// Rebuild replays the click log into a fresh tracker, recovering
// history that never made it through a debounced save. The replay
// window is [now-horizon, now); the end of the replay is recorded as a
// cursor for inspection.
func Rebuild(ctx context.Context, db *statedb.DB, offsetMinutes int, horizon time.Duration) (*Tracker, error) {
	now := time.Now().UTC()
	start := now.Add(-horizon)
	clicks, err := db.LoadClicksRange(ctx, start, now)
	if err != nil {
		return nil, err
	}
	t := New(offsetMinutes)
	for _, c := range clicks {
		if c.OK {
			t.RecordClicks(c.Count, c.TS, 1, 0)
		} else {
			t.RecordClicks(c.Count, c.TS, 0, 1)
		}
	}
	_ = db.SaveCursor(ctx, rebuildCursor, strconv.FormatInt(now.UnixMilli(), 10))
	return t, nil
}
