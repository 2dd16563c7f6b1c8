// Package metrics exposes store dispatch, upload and HTTP metrics through
// Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPrefix namespaces every metric name.
const DefaultPrefix = "evictioncrm"

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	uploadTotal      *prometheus.CounterVec
	uploadBytes      prometheus.Counter
	httpTotal        *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers collectors under prefix on a fresh registry.
func New(prefix string) *Recorder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_dispatch_total",
			Help: "Store dispatches by operation and result",
		}, []string{"operation", "result"}),
		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_dispatch_duration_seconds",
			Help:    "Store dispatch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		uploadTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_uploads_total",
			Help: "Uploaded files by result",
		}, []string{"result"}),
		uploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_upload_bytes_total",
			Help: "Bytes received in successful uploads",
		}),
		httpTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observe records a store dispatch outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.dispatchTotal.WithLabelValues(operation, result(success)).Inc()
	r.dispatchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveUpload records one uploaded file.
func (r *Recorder) ObserveUpload(_ context.Context, success bool, size int) {
	r.uploadTotal.WithLabelValues(result(success)).Inc()
	if success && size > 0 {
		r.uploadBytes.Add(float64(size))
	}
}

// Middleware records request counts and latency keyed by route pattern.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			labels := []string{c.Request().Method, path, strconv.Itoa(status)}
			r.httpTotal.WithLabelValues(labels...).Inc()
			r.httpDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
