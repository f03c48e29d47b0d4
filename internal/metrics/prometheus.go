package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chunkscheduler/internal/world"
)

// PrometheusSink exports scheduler metrics in Prometheus format.
type PrometheusSink struct {
	registry *prometheus.Registry

	queueDepth   prometheus.Gauge
	droppedTotal prometheus.Counter
	inFlight     *prometheus.GaugeVec
	stageLatency *prometheus.HistogramVec
	stageResults *prometheus.CounterVec
	holders      prometheus.Gauge
	chainLength  prometheus.Histogram
}

// Config configures the Prometheus sink.
type Config struct {
	// Registry to register collectors on (if nil, a new one is created).
	Registry *prometheus.Registry

	// LatencyBuckets for the stage-duration histogram, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns the default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}
}

// NewPrometheusSink builds a PrometheusSink and registers all of its
// collectors on cfg.Registry.
func NewPrometheusSink(cfg Config) *PrometheusSink {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &PrometheusSink{registry: registry}

	s.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chunkscheduler",
		Name:      "ready_queue_depth",
		Help:      "Number of tasks currently sitting in the ready queue.",
	})
	s.droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkscheduler",
		Name:      "dropped_nodes_total",
		Help:      "Total DAG nodes dropped via cancellation, failure unwind, or target lowering.",
	})
	s.inFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chunkscheduler",
		Name:      "stage_in_flight",
		Help:      "Number of stage functions currently executing, by stage.",
	}, []string{"stage"})
	s.stageLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chunkscheduler",
		Name:      "stage_duration_seconds",
		Help:      "Stage function duration in seconds, by stage.",
		Buckets:   cfg.LatencyBuckets,
	}, []string{"stage"})
	s.stageResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chunkscheduler",
		Name:      "stage_results_total",
		Help:      "Total stage completions, by stage and outcome.",
	}, []string{"stage", "result"})
	s.holders = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chunkscheduler",
		Name:      "holders",
		Help:      "Number of chunk holders currently tracked.",
	})
	s.chainLength = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chunkscheduler",
		Name:      "chain_length_stages",
		Help:      "Length, in stages, of each dependency chain built by ensure_dependency_chain. sum/count gives the average.",
		Buckets:   prometheus.LinearBuckets(1, 1, 12),
	})

	registry.MustRegister(
		s.queueDepth,
		s.droppedTotal,
		s.inFlight,
		s.stageLatency,
		s.stageResults,
		s.holders,
		s.chainLength,
	)

	return s
}

func (s *PrometheusSink) SetQueueDepth(depth int) { s.queueDepth.Set(float64(depth)) }

func (s *PrometheusSink) IncDroppedNodes() { s.droppedTotal.Inc() }

func (s *PrometheusSink) SetInFlight(stage world.Stage, delta int) {
	s.inFlight.WithLabelValues(stage.String()).Add(float64(delta))
}

func (s *PrometheusSink) ObserveStageDuration(stage world.Stage, seconds float64) {
	s.stageLatency.WithLabelValues(stage.String()).Observe(seconds)
}

func (s *PrometheusSink) IncStageResult(stage world.Stage, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	s.stageResults.WithLabelValues(stage.String(), result).Inc()
}

func (s *PrometheusSink) SetHolders(count int) { s.holders.Set(float64(count)) }

func (s *PrometheusSink) ObserveChainLength(length float64) { s.chainLength.Observe(length) }

// Handler returns the HTTP handler serving this sink's registry in the
// Prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
