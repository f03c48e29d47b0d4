// Package metrics exposes scheduler instrumentation as a small Sink
// interface, with a no-op implementation for tests and a Prometheus-backed
// implementation for production, adapted from the teacher's PrometheusExporter
// (ai/metrics/prometheus.go): same registry/CounterVec/GaugeVec/HistogramVec
// shape, relabeled from chat/tool/LLM metrics to scheduler metrics.
package metrics

import "chunkscheduler/internal/world"

// Sink is the instrumentation surface GenerationSchedule depends on. All
// methods must be safe to call under the schedule's lock and must never
// panic or block.
type Sink interface {
	// SetQueueDepth reports the current ReadyQueue length.
	SetQueueDepth(depth int)

	// IncDroppedNodes counts one DAG node dropped (cancellation, failure
	// unwind, or target lowering).
	IncDroppedNodes()

	// SetInFlight adjusts the number of stage functions currently executing
	// for the given stage by delta (+1 on dispatch, -1 on return).
	SetInFlight(stage world.Stage, delta int)

	// ObserveStageDuration records how long a stage function took to run.
	ObserveStageDuration(stage world.Stage, seconds float64)

	// IncStageResult counts one stage completion, tagged success or failure.
	IncStageResult(stage world.Stage, success bool)

	// SetHolders reports the current holder registry size.
	SetHolders(count int)

	// ObserveChainLength records the length (in stages) of a dependency
	// chain built by a single ensure_dependency_chain call — own chunk and
	// cross-chunk recursions alike — so an average chain length can be
	// derived (SPEC_FULL.md §6, §9).
	ObserveChainLength(length float64)
}

// Nop discards everything. It is the schedule's default Sink.
type Nop struct{}

func (Nop) SetQueueDepth(int)                         {}
func (Nop) IncDroppedNodes()                          {}
func (Nop) SetInFlight(world.Stage, int)              {}
func (Nop) ObserveStageDuration(world.Stage, float64) {}
func (Nop) IncStageResult(world.Stage, bool)          {}
func (Nop) SetHolders(int)                            {}
func (Nop) ObserveChainLength(float64)                {}
