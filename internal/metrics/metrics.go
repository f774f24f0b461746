// Package metrics holds the Prometheus collectors of the upload UI.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "uploadui").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the event duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "uploadui",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is the set of collectors.
type Metrics struct {
	eventsTotal        *prometheus.CounterVec
	eventDuration      *prometheus.HistogramVec
	eventErrors        *prometheus.CounterVec
	uploadsTotal       *prometheus.CounterVec
	uploadDuration     *prometheus.HistogramVec
	uploadsInFlight    prometheus.Gauge
	validationFailures *prometheus.CounterVec
	statsRefreshes     *prometheus.CounterVec
	stagedTotal        *prometheus.CounterVec
	rendersSent        prometheus.Counter
	activeSessions     prometheus.Gauge
	wsErrors           *prometheus.CounterVec
}

// New registers the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		eventsTotal: counterVec("events_total", "Total number of DOM events dispatched", "type", "status"),
		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Event handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),
		eventErrors:  counterVec("event_errors_total", "Total number of event handling errors", "type", "error_type"),
		uploadsTotal: counterVec("uploads_total", "Uploads sent to the API by source and outcome", "source", "outcome"),
		uploadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upload_duration_seconds",
			Help:        "Upload round trip to the API in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		uploadsInFlight:    gauge("uploads_in_flight", "Uploads currently waiting on the API"),
		validationFailures: counterVec("validation_failures_total", "Files rejected before upload", "reason"),
		statsRefreshes:     counterVec("stats_refreshes_total", "Stats refreshes by status", "status"),
		stagedTotal:        counterVec("staged_files_total", "Files received by the staging endpoint", "status"),
		rendersSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_sent_total",
			Help:        "Total number of render frames sent to clients",
			ConstLabels: config.ConstLabels,
		}),
		activeSessions: gauge("active_sessions", "Number of active WebSocket sessions"),
		wsErrors:       counterVec("websocket_errors_total", "Total WebSocket errors by type", "type"),
	}
}

// ObserveEvent records one dispatched event.
func (m *Metrics) ObserveEvent(eventType string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.eventDuration.WithLabelValues(eventType).Observe(d.Seconds())
	status := "success"
	if err != nil {
		status = "error"
		m.eventErrors.WithLabelValues(eventType, CategorizeError(err)).Inc()
	}
	m.eventsTotal.WithLabelValues(eventType, status).Inc()
}

// UploadStarted marks an upload in flight.
func (m *Metrics) UploadStarted(string) {
	if m == nil {
		return
	}
	m.uploadsInFlight.Inc()
}

// UploadFinished records a settled upload.
func (m *Metrics) UploadFinished(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.uploadsInFlight.Dec()
	m.uploadsTotal.WithLabelValues(source, outcome).Inc()
	m.uploadDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ValidationFailed records a rejected file.
func (m *Metrics) ValidationFailed(reason string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(reason).Inc()
}

// StatsRefreshed records a stats refresh attempt.
func (m *Metrics) StatsRefreshed(ok bool) {
	if m == nil {
		return
	}
	m.statsRefreshes.WithLabelValues(okLabel(ok)).Inc()
}

// Staged records a staging request.
func (m *Metrics) Staged(ok bool) {
	if m == nil {
		return
	}
	m.stagedTotal.WithLabelValues(okLabel(ok)).Inc()
}

// RenderSent records a render frame written to a client.
func (m *Metrics) RenderSent() {
	if m == nil {
		return
	}
	m.rendersSent.Inc()
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed records a session teardown.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// WebSocketError records a WebSocket error.
func (m *Metrics) WebSocketError(errorType string) {
	if m == nil {
		return
	}
	m.wsErrors.WithLabelValues(errorType).Inc()
}

func okLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
