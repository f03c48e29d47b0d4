// Package trace records a deterministic, structured log of scheduler
// decisions for test assertions: which stage queued, started, completed,
// failed, or was dropped, for which chunk. Adapted from the teacher's
// determinism contract (no timestamps, no pointers, canonical JSON, a
// content hash) — only the event vocabulary changed, from build-task
// lifecycle events to chunk-stage lifecycle events.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"chunkscheduler/internal/world"
)

// EventKind is the stable, canonical discriminator for Event. These values
// are part of the trace's canonical bytes; do not rename them.
type EventKind string

const (
	EventStageQueued    EventKind = "StageQueued"
	EventStageStarted   EventKind = "StageStarted"
	EventStageCompleted EventKind = "StageCompleted"
	EventStageFailed    EventKind = "StageFailed"
	EventNodeDropped    EventKind = "NodeDropped"
)

// Event is a single logical transition/decision. No timestamps, nothing
// derived from pointer identity or map iteration.
type Event struct {
	Kind  EventKind
	Pos   world.ChunkPos
	Stage world.Stage

	// Reason is a short reason string (e.g. "UpstreamCancelled"). For
	// EventStageFailed the schedule records the stage error's message here.
	Reason string
}

// Sink is the minimal interface the schedule depends on. Record must be
// inert: it must not panic and must not return an error. Callers must
// assume Record may be a no-op.
type Sink interface {
	Record(event Event)
}

// NopSink discards all events.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(Event) {}

// MultiSink fans one Record call out to every wrapped Sink, in order. Used
// to combine an in-memory Recorder with a durable sink (internal/diagnostics)
// without either needing to know about the other.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(event Event) {
	for _, s := range m {
		if s != nil {
			s.Record(event)
		}
	}
}

// ExecutionTrace is the canonical, deterministic record of a scheduling
// run: an ordered (once canonicalized) list of Events.
type ExecutionTrace struct {
	Events []Event
}

func kindOrder(k EventKind) int {
	switch k {
	case EventStageQueued:
		return 10
	case EventStageStarted:
		return 20
	case EventStageCompleted:
		return 30
	case EventStageFailed:
		return 40
	case EventNodeDropped:
		return 50
	default:
		return 1000
	}
}

// Validate checks basic invariants.
func (t *ExecutionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	for i, e := range t.Events {
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
	}
	return nil
}

// Canonicalize sorts events into their canonical order: (pos, stage,
// kindOrder, reason). Ordering is independent of execution timing or
// concurrency.
func (t *ExecutionTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a, b := t.Events[i], t.Events[j]
		if a.Pos != b.Pos {
			return chunkPosLess(a.Pos, b.Pos)
		}
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		return a.Reason < b.Reason
	})
}

func chunkPosLess(a, b world.ChunkPos) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Z < b.Z
}

// CanonicalJSON returns the canonical JSON encoding of a canonicalized copy
// of the trace; it never mutates the caller's slice.
func (t ExecutionTrace) CanonicalJSON() ([]byte, error) {
	cp := ExecutionTrace{Events: append([]Event(nil), t.Events...)}
	cp.Canonicalize()
	if err := cp.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"events":[`)
	for i, e := range cp.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(eventJSON{
			Kind:   string(e.Kind),
			X:      e.Pos.X,
			Z:      e.Pos.Z,
			Stage:  e.Stage.String(),
			Reason: e.Reason,
		})
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

// eventJSON fixes field order and omits the reason when absent.
type eventJSON struct {
	Kind   string `json:"kind"`
	X      int32  `json:"x"`
	Z      int32  `json:"z"`
	Stage  string `json:"stage"`
	Reason string `json:"reason,omitempty"`
}

// Hash returns the deterministic trace hash (sha256 hex) of the canonical
// JSON bytes.
func (t ExecutionTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}
