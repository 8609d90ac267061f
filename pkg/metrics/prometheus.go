// Package metrics provides Prometheus metrics for the weris stress pipeline.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by a weris run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Run outcome
	runsTotal    *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec

	// Scoring
	stressIndex      prometheus.Gauge
	tablesScored     prometheus.Gauge
	tablesSkipped    prometheus.Counter
	symptomsMatched  prometheus.Counter
	predictionsTotal *prometheus.CounterVec

	// Classifier store
	modelEvents *prometheus.CounterVec

	// Remote adapters
	remoteRequests        *prometheus.CounterVec
	remoteRequestDuration *prometheus.HistogramVec

	// Errors
	errorsTotal *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics in textfile output.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "weris",
		subsystem:        "stress",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Total number of pipeline runs by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_latency_milliseconds",
		Help:        "Latency of each pipeline stage in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.stressIndex = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "index",
		Help:        "Stress index computed by the last run",
		ConstLabels: m.constLabels,
	})

	m.tablesScored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tables_scored",
		Help:        "Number of reference tables that contributed to the last stress index",
		ConstLabels: m.constLabels,
	})

	m.tablesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tables_skipped_total",
		Help:        "Reference tables skipped because their file was missing",
		ConstLabels: m.constLabels,
	})

	m.symptomsMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "symptoms_matched_total",
		Help:        "Symptom flags that matched a reference column",
		ConstLabels: m.constLabels,
	})

	m.predictionsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_total",
		Help:        "Classifier predictions by label",
		ConstLabels: m.constLabels,
	}, []string{"label"})

	m.modelEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_events_total",
		Help:        "Classifier store events (loaded, trained)",
		ConstLabels: m.constLabels,
	}, []string{"event"})

	m.remoteRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "remote_requests_total",
		Help:        "Remote intake/sink requests by endpoint and status code",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "status_code"})

	m.remoteRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "remote_request_duration_milliseconds",
		Help:        "Remote request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint"})

	m.errorsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and kind",
		ConstLabels: m.constLabels,
	}, []string{"component", "kind"})
}

// RecordRun increments the run counter for an outcome ("success", "failure").
func RecordRun(outcome string) {
	globalManager.runsTotal.WithLabelValues(outcome).Inc()
}

// RecordStageLatency records the latency of a pipeline stage in milliseconds.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// UpdateStressIndex sets the last computed stress index.
func UpdateStressIndex(v float64) {
	globalManager.stressIndex.Set(v)
}

// UpdateTablesScored sets the number of tables that contributed to the last score.
func UpdateTablesScored(n int) {
	globalManager.tablesScored.Set(float64(n))
}

// RecordTableSkipped increments the skipped table counter.
func RecordTableSkipped() {
	globalManager.tablesSkipped.Inc()
}

// RecordSymptomsMatched adds n matched symptom columns.
func RecordSymptomsMatched(n int) {
	globalManager.symptomsMatched.Add(float64(n))
}

// RecordPrediction increments the prediction counter for a label.
func RecordPrediction(label string) {
	globalManager.predictionsTotal.WithLabelValues(label).Inc()
}

// RecordModelEvent increments the classifier store counter ("loaded", "trained").
func RecordModelEvent(event string) {
	globalManager.modelEvents.WithLabelValues(event).Inc()
}

// RecordRemoteRequest records one remote request. A status of 0 means the
// request never produced a response.
func RecordRemoteRequest(endpoint string, status int, durationMs float64) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	globalManager.remoteRequests.WithLabelValues(endpoint, code).Inc()
	globalManager.remoteRequestDuration.WithLabelValues(endpoint).Observe(durationMs)
}

// RecordError increments the error counter for a component and error kind.
func RecordError(component, kind string) {
	globalManager.errorsTotal.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current registry in the node exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTextfile, err)
	}
	return nil
}
