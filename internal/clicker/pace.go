package clicker

import (
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// NewLimiter creates a click-pacing limiter using env overrides if present.
func NewLimiter() *rate.Limiter {
	rps := 0.5
	burst := 3
	if v := os.Getenv("CLICKPULSE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	if v := os.Getenv("CLICKPULSE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
