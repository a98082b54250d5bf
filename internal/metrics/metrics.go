package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClicksRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clickpulse_clicks_recorded_total",
		Help: "Total clicks ingested into the engine",
	})
	ClickFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clickpulse_click_failures_total",
		Help: "Total failed click attempts tallied",
	})
	SummaryQueries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clickpulse_summary_queries_total",
		Help: "Total summary queries answered",
	})
	PruneEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clickpulse_prune_evictions_total",
		Help: "Total day buckets evicted by retention pruning",
	})
	StateSaves = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clickpulse_state_saves_total",
		Help: "Total state blobs persisted",
	})
	SaveErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clickpulse_state_save_errors_total",
		Help: "Total failed state saves",
	})
	SaveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "clickpulse_state_save_duration_seconds",
		Help:    "State save duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clickpulse_command_runs_total",
		Help: "Total CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clickpulse_command_errors_total",
		Help: "Total CLI command errors",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(ClicksRecorded, ClickFailures, SummaryQueries,
		PruneEvictions, StateSaves, SaveErrors, SaveDuration, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveSaveDuration records one save duration.
func ObserveSaveDuration(start time.Time) {
	SaveDuration.Observe(time.Since(start).Seconds())
}

// IncCommandRun increments the run counter for a CLI command.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError increments the error counter for a CLI command.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
