package project

import (
	"testing"

	"clickpulse/internal/history"
)

func TestShiftHourZeroOffsetIsNoop(t *testing.T) {
	for h := 0; h < 24; h++ {
		localHour, dayDelta := ShiftHour(h, 0)
		if localHour != h || dayDelta != 0 {
			t.Fatalf("hour %d: got (%d,%d)", h, localHour, dayDelta)
		}
	}
}

func TestShiftHourRoundTrip(t *testing.T) {
	// Shifting local minutes back by -offset must recover the UTC hour.
	for offset := -MaxOffsetMinutes; offset <= MaxOffsetMinutes; offset += 15 {
		for h := 0; h < 24; h++ {
			localHour, _ := ShiftHour(h, offset)
			// The local slot only retains whole hours, so undo the
			// offset's sub-hour part before shifting back.
			rem := ((h*60+offset)%60 + 60) % 60
			back, _ := ShiftHour(localHour, rem-offset)
			if back != h {
				t.Fatalf("offset=%d hour=%d: local=%d back=%d", offset, h, localHour, back)
			}
		}
	}
}

func TestShiftHourDaySpill(t *testing.T) {
	cases := []struct {
		hour, offset        int
		wantHour, wantDelta int
	}{
		{23, 180, 2, 1},    // 23:00 UTC at +3 is 02:00 next day
		{0, -60, 23, -1},   // midnight UTC at -1 is 23:00 previous day
		{12, 330, 17, 0},   // +5:30 keeps the half hour inside the day
		{22, 345, 3, 1},    // +5:45 spills
		{1, -330, 19, -1},  // -5:30
		{12, 840, 2, 1},    // +14
		{12, -840, 22, -1}, // -14
	}
	for _, c := range cases {
		gotHour, gotDelta := ShiftHour(c.hour, c.offset)
		if gotHour != c.wantHour || gotDelta != c.wantDelta {
			t.Fatalf("ShiftHour(%d,%d) = (%d,%d), want (%d,%d)",
				c.hour, c.offset, gotHour, gotDelta, c.wantHour, c.wantDelta)
		}
	}
}

func TestClampOffset(t *testing.T) {
	if ClampOffset(2000) != MaxOffsetMinutes {
		t.Fatalf("positive clamp failed")
	}
	if ClampOffset(-2000) != -MaxOffsetMinutes {
		t.Fatalf("negative clamp failed")
	}
	if ClampOffset(330) != 330 {
		t.Fatalf("in-range offset altered")
	}
}

func TestHistoryProjectsAcrossDays(t *testing.T) {
	s := history.NewStore()
	s.Update("2024-01-15", func(b *history.DayBucket) {
		b.Hourly[23] = 5
		b.TotalClicks = 5
	})
	got := History(s, 180)
	slots, ok := got["2024-01-16"]
	if !ok {
		t.Fatalf("expected projection into next local day, got %v", got)
	}
	if slots[2] != 5 {
		t.Fatalf("local hour 2 = %d, want 5", slots[2])
	}
	if _, ok := got["2024-01-15"]; ok {
		t.Fatalf("source day should be empty after projection")
	}
}

func TestHistorySumsCollidingSlots(t *testing.T) {
	s := history.NewStore()
	// 23:30-local boundary: with -30 min both entries collide on hour 22.
	s.Update("2024-03-10", func(b *history.DayBucket) {
		b.Hourly[22] = 2
		b.Hourly[23] = 3
		b.TotalClicks = 5
	})
	got := History(s, -90)
	if got["2024-03-10"][20] != 2 || got["2024-03-10"][21] != 3 {
		t.Fatalf("projection wrong: %v", got["2024-03-10"])
	}
	// Adjacent days projected into the same local day.
	s2 := history.NewStore()
	s2.Update("2024-03-10", func(b *history.DayBucket) { b.Hourly[23] = 1; b.TotalClicks = 1 })
	s2.Update("2024-03-11", func(b *history.DayBucket) { b.Hourly[0] = 4; b.TotalClicks = 4 })
	got2 := History(s2, 60)
	if got2["2024-03-11"][0] != 1 || got2["2024-03-11"][1] != 4 {
		t.Fatalf("cross-day accumulation wrong: %v", got2["2024-03-11"])
	}
}

func TestHistorySkipsZeroHours(t *testing.T) {
	s := history.NewStore()
	s.EnsureBucket("2024-05-01")
	if got := History(s, 0); len(got) != 0 {
		t.Fatalf("all-zero bucket produced output: %v", got)
	}
}
