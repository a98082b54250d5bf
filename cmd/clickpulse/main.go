package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clickpulse/internal/clicker"
	"clickpulse/internal/cmdlog"
	"clickpulse/internal/config"
	"clickpulse/internal/metrics"
	"clickpulse/internal/persist"
	"clickpulse/internal/statedb"
	"clickpulse/internal/summary"
	"clickpulse/internal/theme"
	"clickpulse/internal/tracker"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "record":
		cmdRecord()
	case "summary":
		cmdSummary()
	case "monitor":
		cmdMonitor()
	case "rebuild":
		cmdRebuild()
	case "schedule":
		cmdSchedule()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: clickpulse <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./clickpulse.yaml")
	fmt.Println("  record      Record a click event")
	fmt.Println("  summary     Show calendar, rolling totals, best hour/day")
	fmt.Println("  monitor     Show the hourly activity profile")
	fmt.Println("  rebuild     Rebuild history from the click log")
	fmt.Println("  schedule    Show the next click window and budget state")
}

func mustLoadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	metrics.StartServer(cfg.Metrics.Addr)
	return cfg
}

func openDB(cfg config.Config) *statedb.DB {
	db, err := statedb.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	return db
}

// loadTracker restores the engine state from the blob, normalizing on
// the way in. A missing or unreadable blob starts empty.
func loadTracker(ctx context.Context, db *statedb.DB, cfg config.Config) *tracker.Tracker {
	blob, ok, err := db.LoadState(ctx)
	if err != nil || !ok {
		tr := tracker.New(cfg.Query.TimezoneOffsetMinutes)
		tr.SetHistoryEnabled(cfg.Clicker.TrackHistory)
		return tr
	}
	tr := tracker.FromState(tracker.DecodeState(blob), cfg.Query.TimezoneOffsetMinutes)
	tr.SetHistoryEnabled(cfg.Clicker.TrackHistory)
	return tr
}

func cmdInit() {
	out := flag.NewFlagSet("init", flag.ExitOnError)
	path := out.String("path", "./clickpulse.yaml", "path to write config")
	_ = out.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdRecord() {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	cfgPath := fs.String("config", "./clickpulse.yaml", "config path")
	count := fs.Int("count", 1, "clicks to record (non-negative)")
	failed := fs.Bool("failed", false, "record the attempt as failed")
	at := fs.String("at", "", "event time, RFC3339 (default now)")
	_ = fs.Parse(os.Args[2:])
	if *count < 0 {
		fmt.Println("error: count must be non-negative")
		os.Exit(1)
	}
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("record", func() error {
		ctx := context.Background()
		db := openDB(cfg)
		defer db.Close()
		ts := time.Now().UTC()
		if *at != "" {
			parsed, err := time.Parse(time.RFC3339, *at)
			if err != nil {
				return err
			}
			ts = parsed.UTC()
		}
		tr := loadTracker(ctx, db, cfg)
		succ, fail := 1, 0
		if *failed {
			succ, fail = 0, 1
			metrics.ClickFailures.Inc()
		}
		evicted := tr.RecordClicks(*count, ts, succ, fail)
		metrics.ClicksRecorded.Add(float64(*count))
		metrics.PruneEvictions.Add(float64(evicted))
		if err := clicker.RecordClick(ctx, db, ts, *count, !*failed); err != nil {
			return err
		}
		s := persist.NewSaver(db, tr)
		s.MarkDirty()
		if err := s.Flush(ctx); err != nil {
			return err
		}
		c := tr.Counters()
		fmt.Printf("lifetime=%d today=%d session=%d accuracy=%.1f%%\n",
			c.Lifetime, c.Today, c.Session, tr.Accuracy())
		return nil
	})
}

func cmdSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	cfgPath := fs.String("config", "./clickpulse.yaml", "config path")
	period := fs.Int("period", 0, "window in days: 7, 30 or 90 (default from config)")
	tz := fs.Int("tz", 0, "UTC offset minutes (default from config)")
	days := fs.Int("days", 14, "calendar days to print")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("summary", func() error {
		ctx := context.Background()
		db := openDB(cfg)
		defer db.Close()
		tr := loadTracker(ctx, db, cfg)
		p := *period
		if p == 0 {
			p = cfg.Query.DefaultPeriodDays
		}
		offset := *tz
		if offset == 0 {
			offset = cfg.Query.TimezoneOffsetMinutes
		}
		res := summary.ForStore(tr.Store(), time.Now().UTC(), offset, p)
		metrics.SummaryQueries.Inc()

		fmt.Printf("period totals: 7d=%d 30d=%d 90d=%d\n",
			res.PeriodTotals[7], res.PeriodTotals[30], res.PeriodTotals[90])
		fmt.Printf("best day:  %s (%d clicks)\n", res.BestDay.Date, res.BestDay.Clicks)
		fmt.Printf("best hour: %02d:00 (%d clicks)\n", res.BestHour.Hour, res.BestHour.Clicks)
		tail := res.Calendar
		if len(tail) > *days {
			tail = tail[len(tail)-*days:]
		}
		for _, d := range tail {
			fmt.Printf("%s %5d %s\n", d.Date, d.Clicks, bar(d.Clicks, maxClicks(tail)))
		}
		return nil
	})
}

func cmdMonitor() {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	cfgPath := fs.String("config", "./clickpulse.yaml", "config path")
	period := fs.Int("period", 0, "window in days: 7, 30 or 90 (default from config)")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("monitor", func() error {
		ctx := context.Background()
		db := openDB(cfg)
		defer db.Close()
		tr := loadTracker(ctx, db, cfg)
		p := *period
		if p == 0 {
			p = cfg.Query.DefaultPeriodDays
		}
		res := summary.ForStore(tr.Store(), time.Now().UTC(), cfg.Query.TimezoneOffsetMinutes, p)
		metrics.SummaryQueries.Inc()
		peak := 0
		for _, v := range res.HourlyTotals {
			if v > peak {
				peak = v
			}
		}
		for h, v := range res.HourlyTotals {
			fmt.Printf("%02d:00 %5d %s\n", h, v, bar(v, peak))
		}
		return nil
	})
}

func cmdRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	cfgPath := fs.String("config", "./clickpulse.yaml", "config path")
	horizon := fs.Int("horizon", 90*24, "replay horizon in hours")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("rebuild", func() error {
		ctx := context.Background()
		db := openDB(cfg)
		defer db.Close()
		tr, err := tracker.Rebuild(ctx, db, cfg.Query.TimezoneOffsetMinutes, time.Duration(*horizon)*time.Hour)
		if err != nil {
			return err
		}
		s := persist.NewSaver(db, tr)
		s.MarkDirty()
		if err := s.Flush(ctx); err != nil {
			return err
		}
		fmt.Printf("rebuilt %d day buckets, lifetime=%d\n", tr.Store().Len(), tr.Counters().Lifetime)
		return nil
	})
}

func cmdSchedule() {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	cfgPath := fs.String("config", "./clickpulse.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath)
	_ = cmdlog.Run("schedule", func() error {
		ctx := context.Background()
		db := openDB(cfg)
		defer db.Close()
		now := time.Now().UTC()
		ok, err := clicker.Allow(ctx, db, cfg.Clicker, now)
		if err != nil {
			return err
		}
		next := clicker.NextWindow(now, cfg.Clicker.QuietHours)
		fmt.Println("budget allows click:", ok)
		fmt.Println("next window:", next.Format(time.RFC3339))
		return nil
	})
}

func maxClicks(days []summary.DayPoint) int {
	m := 0
	for _, d := range days {
		if d.Clicks > m {
			m = d.Clicks
		}
	}
	return m
}

func bar(v, peak int) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := v * 40 / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
