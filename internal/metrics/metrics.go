package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	global     *Metrics
	globalOnce sync.Once
)

// Metrics holds the Prometheus collectors shared by both binaries.
//
//   - workshop_http_requests_total{method,route,status}
//   - workshop_http_request_duration_seconds{method,route}
//   - workshop_status_transitions_total{entity,to}
//   - workshop_callbacks_purged_total
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Transitions     *prometheus.CounterVec
	CallbacksPurged prometheus.Counter
}

// Default registers the collectors once and returns them.
func Default() *Metrics {
	globalOnce.Do(func() {
		global = &Metrics{
			HTTPRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "workshop_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "workshop_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			Transitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "workshop_status_transitions_total",
					Help: "Lifecycle status changes by entity and target status",
				},
				[]string{"entity", "to"},
			),
			CallbacksPurged: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "workshop_callbacks_purged_total",
					Help: "Soft-deleted callbacks removed after their grace period",
				},
			),
		}
	})
	return global
}

func ObserveTransition(entity, to string) {
	Default().Transitions.WithLabelValues(entity, to).Inc()
}

func ObservePurged(n int64) {
	if n > 0 {
		Default().CallbacksPurged.Add(float64(n))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. The route label is the chi
// route pattern, not the raw path, so ids do not blow up label cardinality.
func Middleware(next http.Handler) http.Handler {
	m := Default()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
