// Package metrics provides counters, Prometheus collectors, and HTTP
// handlers for exporting meterwatch runtime metrics.
package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 1. Internal State (Source of Truth)
var (
	runs                int64
	runsFailed          int64
	fetchFailures       int64
	notificationsOK     int64
	notificationsFailed int64
	lastRun             int64
	balanceBits         uint64
)

const counterInc int64 = 1

// 2. Prometheus Collectors
var (
	promRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meterwatch_runs_total",
			Help: "Total statement passes attempted",
		},
	)
	promRunsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "meterwatch_runs_failed_total",
			Help: "Total passes aborted by a fatal balance failure",
		},
	)
	promFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_fetch_failures_total",
			Help: "Total failed utility API fetches",
		},
		[]string{"endpoint"},
	)
	promNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterwatch_notifications_total",
			Help: "Total delivery attempts",
		},
		[]string{"status"},
	)
	promBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meterwatch_balance_taka",
			Help: "Most recently fetched account balance",
		},
	)
	promLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "meterwatch_last_run_timestamp_seconds",
			Help: "Unix timestamp of last run",
		},
	)
)

func init() {
	prometheus.MustRegister(
		promRuns,
		promRunsFailed,
		promFetchFailures,
		promNotifications,
		promBalance,
		promLastRun,
	)
}

// 3. Public API (Updates both Atomic and Prometheus)

// IncRun increments the number of statement passes.
func IncRun() {
	atomic.AddInt64(&runs, counterInc)
	promRuns.Inc()
}

// IncRunFailed increments the counter for passes aborted by a fatal failure.
func IncRunFailed() {
	atomic.AddInt64(&runsFailed, counterInc)
	promRunsFailed.Inc()
}

// IncFetchFailure increments the failure counter for the named endpoint.
func IncFetchFailure(endpoint string) {
	atomic.AddInt64(&fetchFailures, counterInc)
	promFetchFailures.WithLabelValues(endpoint).Inc()
}

// IncNotificationOK increments the counter for successful deliveries.
func IncNotificationOK() {
	atomic.AddInt64(&notificationsOK, counterInc)
	promNotifications.WithLabelValues("success").Inc()
}

// IncNotificationFailed increments the counter for failed deliveries.
func IncNotificationFailed() {
	atomic.AddInt64(&notificationsFailed, counterInc)
	promNotifications.WithLabelValues("failure").Inc()
}

// SetBalance records the most recently fetched balance.
func SetBalance(v float64) {
	atomic.StoreUint64(&balanceBits, math.Float64bits(v))
	promBalance.Set(v)
}

// SetLastRun stores the provided time as the last run timestamp and
// updates the corresponding Prometheus gauge.
func SetLastRun(t time.Time) {
	atomic.StoreInt64(&lastRun, t.Unix())
	promLastRun.Set(float64(t.Unix()))
}

// 4. JSON Snapshot Struct

// StatsSnapshot is a snapshot of metrics for JSON encoding.
type StatsSnapshot struct {
	Runs                int64   `json:"runs"`
	RunsFailed          int64   `json:"runs_failed"`
	FetchFailures       int64   `json:"fetch_failures"`
	NotificationsOK     int64   `json:"notifications_ok"`
	NotificationsFailed int64   `json:"notifications_failed"`
	Balance             float64 `json:"balance"`
	LastRun             int64   `json:"last_run_timestamp"`
	LastRunHuman        string  `json:"last_run_human"`
}

// GetSnapshot returns a StatsSnapshot with the current values of all
// internal counters and timestamps.
func GetSnapshot() StatsSnapshot {
	ts := atomic.LoadInt64(&lastRun)
	return StatsSnapshot{
		Runs:                atomic.LoadInt64(&runs),
		RunsFailed:          atomic.LoadInt64(&runsFailed),
		FetchFailures:       atomic.LoadInt64(&fetchFailures),
		NotificationsOK:     atomic.LoadInt64(&notificationsOK),
		NotificationsFailed: atomic.LoadInt64(&notificationsFailed),
		Balance:             math.Float64frombits(atomic.LoadUint64(&balanceBits)),
		LastRun:             ts,
		LastRunHuman:        time.Unix(ts, 0).Format(time.RFC3339),
	}
}

// 5. Handlers

// PromHandler returns an HTTP handler that exposes Prometheus metrics.
func PromHandler() http.Handler { return promhttp.Handler() }

// JSONHandler returns an HTTP handler that serves the current metrics as
// a JSON-encoded StatsSnapshot.
func JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetSnapshot())
	})
}
