// Package summary answers rolling-window analytics over a projected
// local-calendar history.
package summary

import (
	"time"

	"clickpulse/internal/history"
	"clickpulse/internal/project"
)

// Periods are the three fixed rolling windows, ascending.
var Periods = []int{7, 30, 90}

const calendarDays = 90

// DefaultPeriod is used when a caller asks for a window outside
// {7, 30, 90}.
const DefaultPeriod = 30

// DayPoint is one day of the returned calendar, oldest first.
type DayPoint struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

// HourPoint names the busiest hour of a window.
type HourPoint struct {
	Hour   int `json:"hour"`
	Clicks int `json:"clicks"`
}

// Result is derived fresh on every query and never persisted. Field
// names are a contract with reporting collaborators.
type Result struct {
	Calendar        []DayPoint    `json:"calendar"`
	PeriodTotals    map[int]int   `json:"periodTotals"`
	HourlyTotals    []int         `json:"hourlyTotals"`
	HourlyTotalsAll map[int][]int `json:"hourlyTotalsAll"`
	BestHour        HourPoint     `json:"bestHour"`
	BestDay         DayPoint      `json:"bestDay"`
}

// NormalizePeriod maps out-of-range window sizes to DefaultPeriod.
func NormalizePeriod(periodDays int) int {
	for _, p := range Periods {
		if periodDays == p {
			return p
		}
	}
	return DefaultPeriod
}

// Summarize walks 90 local days backward from referenceNow over the
// projected history. referenceNow's UTC date parts are the local
// "today": the projection already folded in the offset, so no further
// shifting happens here.
func Summarize(projected map[string][]int, referenceNow time.Time, periodDays int) Result {
	today := time.Date(referenceNow.UTC().Year(), referenceNow.UTC().Month(), referenceNow.UTC().Day(), 0, 0, 0, 0, time.UTC)

	periodTotals := make(map[int]int, len(Periods))
	hourlyByPeriod := make(map[int][]int, len(Periods))
	bestDays := make(map[int]DayPoint, len(Periods))
	for _, p := range Periods {
		periodTotals[p] = 0
		hourlyByPeriod[p] = make([]int, 24)
	}

	calendar := make([]DayPoint, 0, calendarDays)
	for i := 0; i < calendarDays; i++ {
		day := history.DateKey(today.AddDate(0, 0, -i))
		perHour := projected[day]
		dayTotal := 0
		for _, v := range perHour {
			dayTotal += v
		}
		calendar = append(calendar, DayPoint{Date: day, Clicks: dayTotal})
		for _, p := range Periods {
			if i >= p {
				continue
			}
			periodTotals[p] += dayTotal
			for h, v := range perHour {
				hourlyByPeriod[p][h] += v
			}
			// Strictly-greater keeps the more recent day on ties,
			// since i ascends from today backward.
			if best, ok := bestDays[p]; !ok || dayTotal > best.Clicks {
				bestDays[p] = DayPoint{Date: day, Clicks: dayTotal}
			}
		}
	}

	// calendar was built today-first; callers want oldest-first.
	for l, r := 0, len(calendar)-1; l < r; l, r = l+1, r-1 {
		calendar[l], calendar[r] = calendar[r], calendar[l]
	}

	selected := NormalizePeriod(periodDays)
	hourly := hourlyByPeriod[selected]
	best := HourPoint{}
	for h, v := range hourly {
		// First strictly-greater wins, so ties resolve to the lowest hour.
		if v > best.Clicks {
			best = HourPoint{Hour: h, Clicks: v}
		}
	}

	return Result{
		Calendar:        calendar,
		PeriodTotals:    periodTotals,
		HourlyTotals:    hourly,
		HourlyTotalsAll: hourlyByPeriod,
		BestHour:        best,
		BestDay:         bestDays[selected],
	}
}

// ForStore is the one-call query path: clamp the offset, project the
// store into the local calendar, and summarize.
func ForStore(s *history.Store, referenceNow time.Time, offsetMinutes, periodDays int) Result {
	projected := project.History(s, offsetMinutes)
	local := referenceNow.UTC().Add(time.Duration(project.ClampOffset(offsetMinutes)) * time.Minute)
	return Summarize(projected, local, periodDays)
}
