// Package metrics holds the Prometheus collectors for the HTTP surface and
// the spatial queries.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	gatherer prometheus.Gatherer

	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec
	Crossings *prometheus.CounterVec
	Records   prometheus.Counter
}

// New registers the collectors against reg, defaulting to the global
// registry when reg is nil. Re-registering returns the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_http_requests_total",
		Help: "HTTP requests handled, labeled by route pattern, method and status code.",
	}, []string{"route", "method", "code"}))
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atlas_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"}))
	if err != nil {
		return nil, err
	}

	crossings, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_crossings_reported_total",
		Help: "Intersection results returned, labeled by query kind (cable or a zone label).",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	records, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_records_appended_total",
		Help: "Feature collection records appended to the store.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:  gatherer,
		Requests:  requests,
		Durations: durations,
		Crossings: crossings,
		Records:   records,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveCrossings counts n results for kind. A nil Collector is a no-op.
func (c *Collector) ObserveCrossings(kind string, n int) {
	if c == nil {
		return
	}
	c.Crossings.WithLabelValues(kind).Add(float64(n))
}

// RecordAppended counts one stored record. A nil Collector is a no-op.
func (c *Collector) RecordAppended() {
	if c == nil {
		return
	}
	c.Records.Inc()
}

// Middleware records count and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		c.Requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		c.Durations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
