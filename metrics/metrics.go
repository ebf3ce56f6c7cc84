// Package metrics provides Prometheus instrumentation for the simulator.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HittersSimulated counts finished hitters, partitioned by result (ok, invalid).
	HittersSimulated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runsim_hitters_total",
		Help: "Total number of hitter profiles simulated",
	}, []string{"result"})

	// InningsSimulated counts innings played across all hitters.
	InningsSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runsim_innings_total",
		Help: "Total number of innings simulated",
	})

	// HitterDuration tracks wall-clock time per hitter.
	HitterDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "runsim_hitter_duration_seconds",
		Help:    "Time spent simulating one hitter profile",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// ActiveRuns tracks runs currently in progress.
	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "runsim_active_runs",
		Help: "Number of simulation runs in progress",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runsim_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "runsim_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics. pathLabel maps a request to a low
// cardinality label such as its route template.
func Middleware(pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := pathLabel(r)
			HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
