package tracker

import (
	"context"
	"testing"
	"time"

	"clickpulse/internal/history"
	"clickpulse/internal/statedb"
)

func sumHourly(b history.DayBucket) int {
	s := 0
	for _, v := range b.Hourly {
		s += v
	}
	return s
}

func TestRecordClicksKeepsBucketInvariant(t *testing.T) {
	tr := New(0)
	base := time.Date(2024, 6, 1, 0, 15, 0, 0, time.UTC)
	seq := []struct {
		count int
		at    time.Time
	}{
		{1, base},
		{3, base.Add(30 * time.Minute)},
		{2, base.Add(9 * time.Hour)},
		{0, base.Add(10 * time.Hour)},
		{5, base.Add(26 * time.Hour)}, // next UTC day
	}
	for _, ev := range seq {
		tr.RecordClicks(ev.count, ev.at, 1, 0)
		for _, key := range tr.Store().Keys() {
			b, _ := tr.Store().Get(key)
			if sumHourly(b) != b.TotalClicks {
				t.Fatalf("invariant broken for %s: sum=%d total=%d", key, sumHourly(b), b.TotalClicks)
			}
		}
	}
	b, _ := tr.Store().Get("2024-06-01")
	if b.Hourly[0] != 4 || b.Hourly[9] != 2 || b.TotalClicks != 6 {
		t.Fatalf("day one wrong: %+v", b)
	}
	b, _ = tr.Store().Get("2024-06-02")
	if b.Hourly[2] != 5 || b.TotalClicks != 5 {
		t.Fatalf("day two wrong: %+v", b)
	}
	if tr.Counters().Lifetime != 11 {
		t.Fatalf("lifetime: %d", tr.Counters().Lifetime)
	}
}

func TestZeroCountStillTalliesOutcome(t *testing.T) {
	tr := New(0)
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.RecordClicks(0, ts, 0, 1)
	if tr.Counters().Failed != 1 || tr.Counters().Lifetime != 0 {
		t.Fatalf("counters: %+v", tr.Counters())
	}
	if b, _ := tr.Store().Get("2024-06-01"); b.TotalClicks != 0 {
		t.Fatalf("zero-count event changed history total: %+v", b)
	}
}

func TestAccuracy(t *testing.T) {
	tr := New(0)
	if tr.Accuracy() != 100 {
		t.Fatalf("empty accuracy: %f", tr.Accuracy())
	}
	ts := time.Now().UTC()
	tr.RecordClicks(1, ts, 1, 0)
	tr.RecordClicks(1, ts, 1, 0)
	tr.RecordClicks(0, ts, 0, 2)
	if got := tr.Accuracy(); got != 50 {
		t.Fatalf("accuracy: %f", got)
	}
}

func TestTodayRollsAtLocalMidnight(t *testing.T) {
	// +3h offset: 22:00 UTC is already the next local day.
	tr := New(180)
	tr.RecordClicks(4, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), 1, 0)
	if c := tr.Counters(); c.Today != 4 || c.TodayKey != "2024-06-01" {
		t.Fatalf("before rollover: %+v", c)
	}
	tr.RecordClicks(2, time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC), 1, 0)
	c := tr.Counters()
	if c.Today != 2 || c.TodayKey != "2024-06-02" {
		t.Fatalf("local rollover missed: %+v", c)
	}
	if c.Lifetime != 6 {
		t.Fatalf("lifetime reset by rollover: %+v", c)
	}
	// History still keys on the UTC day.
	if b, _ := tr.Store().Get("2024-06-01"); b.TotalClicks != 6 {
		t.Fatalf("history not UTC-keyed: %+v", b)
	}
}

func TestIngestionPrunesRetention(t *testing.T) {
	tr := New(0)
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 95; i++ {
		tr.RecordClicks(1, base.AddDate(0, 0, i), 1, 0)
	}
	if tr.Store().Len() != 90 {
		t.Fatalf("retention: %d buckets", tr.Store().Len())
	}
	if _, ok := tr.Store().Get("2024-01-01"); ok {
		t.Fatalf("oldest bucket survived")
	}
}

func TestHistoryDisabledKeepsCounters(t *testing.T) {
	tr := New(0)
	tr.SetHistoryEnabled(false)
	tr.RecordClicks(3, time.Now().UTC(), 1, 0)
	if tr.Store().Len() != 0 {
		t.Fatalf("history written while disabled")
	}
	if tr.Counters().Lifetime != 3 {
		t.Fatalf("counters skipped: %+v", tr.Counters())
	}
}

func TestDecodeStateLenient(t *testing.T) {
	st := DecodeState([]byte(`{
	  "counters": {"lifetime": 9, "successful": 5, "failed": 1},
	  "history": {"2024-06-01": {"totalClicks": "3", "hourly": [1,2]}}
	}`))
	if st.Counters.Lifetime != 9 {
		t.Fatalf("counters: %+v", st.Counters)
	}
	b := st.History["2024-06-01"]
	if len(b.Hourly) != 24 || b.TotalClicks != 3 {
		t.Fatalf("history not repaired: %+v", b)
	}
	if got := DecodeState([]byte("not json")); len(got.History) != 0 || got.Counters.Lifetime != 0 {
		t.Fatalf("garbage blob should decode empty: %+v", got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	tr := New(0)
	tr.RecordClicks(7, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), 1, 0)
	tr.ResetSession()
	got := FromState(tr.Snapshot(), 0)
	if got.Counters() != tr.Counters() {
		t.Fatalf("counters diverged: %+v vs %+v", got.Counters(), tr.Counters())
	}
	b, _ := got.Store().Get("2024-06-01")
	if b.Hourly[8] != 7 {
		t.Fatalf("history diverged: %+v", b)
	}
}

func TestRebuildReplaysClickLog(t *testing.T) {
	db, err := statedb.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	now := time.Now().UTC()
	_ = db.PutClick(ctx, now.Add(-2*time.Hour), 3, true)
	_ = db.PutClick(ctx, now.Add(-time.Hour), 2, false)
	tr, err := Rebuild(ctx, db, 0, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := tr.Counters()
	if c.Lifetime != 5 || c.Successful != 1 || c.Failed != 1 {
		t.Fatalf("replayed counters: %+v", c)
	}
	total := 0
	for _, key := range tr.Store().Keys() {
		b, _ := tr.Store().Get(key)
		total += b.TotalClicks
	}
	if total != 5 {
		t.Fatalf("replayed history total: %d", total)
	}
	if v, _ := db.LoadCursor(ctx, "rebuild:last_ts"); v == "" {
		t.Fatalf("rebuild cursor not saved")
	}
}
