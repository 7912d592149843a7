// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	// Dispatch
	messagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_messages_dispatched_total",
			Help: "Campaign messages that reached a terminal state, by result.",
		},
		[]string{"result"},
	)
	sendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_send_duration_seconds",
			Help:    "Time spent in a single gateway send call.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pacingDelay = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_pacing_delay_seconds",
			Help:    "Randomized delay applied between consecutive sends.",
			Buckets: []float64{0.5, 1, 2, 3, 4, 5, 6, 8, 10},
		},
	)
	activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaign_active_runs",
			Help: "Number of campaign runs currently in the dispatch loop.",
		},
	)
	runsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_runs_completed_total",
			Help: "Campaign runs that finished with every message terminal.",
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			messagesDispatched,
			sendDuration,
			pacingDelay,
			activeRuns,
			runsCompleted,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// --- HTTP ---
func ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	c := strconv.Itoa(code)
	httpRequests.WithLabelValues(method, route, c).Inc()
	httpDuration.WithLabelValues(method, route, c).Observe(d.Seconds())
}

// --- Dispatch ---
func IncMessageSent()                      { messagesDispatched.WithLabelValues("sent").Inc() }
func IncMessageFailed()                    { messagesDispatched.WithLabelValues("failed").Inc() }
func ObserveSendDuration(d time.Duration)  { sendDuration.Observe(d.Seconds()) }
func ObservePacingDelay(d time.Duration)   { pacingDelay.Observe(d.Seconds()) }
func IncActiveRuns()                       { activeRuns.Inc() }
func DecActiveRuns()                       { activeRuns.Dec() }
func IncRunsCompleted()                    { runsCompleted.Inc() }
