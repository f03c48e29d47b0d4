// Package holder tracks per-chunk scheduler state: the stage a chunk has
// actually reached, the stage any live ticket wants it to reach, and the
// task handles currently in flight for it.
//
// Registry is a plain map, not a concurrent one — the single coarse
// structural lock in internal/schedule guards every access, exactly as the
// teacher's Executor.mu guards its ExecutionState map (SPEC_FULL.md §5).
package holder

import (
	"chunkscheduler/internal/dag"
	"chunkscheduler/internal/world"
)

// ChunkHolder is the scheduler-owned record of a chunk's generation state.
type ChunkHolder struct {
	Pos world.ChunkPos

	// CurrentStage is the highest stage already persisted for this chunk.
	CurrentStage world.Stage

	// TargetStage is the highest stage any live ticket demands.
	TargetStage world.Stage

	// Tasks holds the per-stage task handle; NilNodeKey means "no task
	// exists". At most one non-nil task per stage (invariant 1, §3): for any
	// non-nil Tasks[i], i > CurrentStage.
	Tasks [world.StageCount]dag.NodeKey

	// Occupied is a nullable handle to a pseudo-node blocking new tasks while
	// this chunk is being serialized, unloaded, or otherwise locked by a
	// privileged caller.
	Occupied dag.NodeKey

	// Sentinel is a nullable handle to the ticket-delivery node representing
	// the live demand for TargetStage (SPEC_FULL.md §4.5). It carries no
	// generation work; it exists only so ensureDependencyChain's ordinary
	// edge-wiring can track "has the aggregate target been reached".
	Sentinel dag.NodeKey

	// Protochunk is the mutable buffer stage runs mutate; created at Empty,
	// consumed at Full.
	Protochunk *world.ProtoChunk

	// TicketLevel is the aggregated priority used for ReadyQueue ordering.
	TicketLevel uint8
}

// New returns a holder for pos with every task slot empty, at the given
// persisted (or None) stage.
func New(pos world.ChunkPos, currentStage world.Stage) *ChunkHolder {
	h := &ChunkHolder{
		Pos:          pos,
		CurrentStage: currentStage,
		TargetStage:  world.None,
	}
	for i := range h.Tasks {
		h.Tasks[i] = dag.NilNodeKey
	}
	h.Occupied = dag.NilNodeKey
	h.Sentinel = dag.NilNodeKey
	return h
}

// Idle reports whether the holder has no outstanding tickets or tasks and
// can be dropped from the registry: no live target, no task handles, no
// occupancy lock.
func (h *ChunkHolder) Idle() bool {
	if h.TargetStage != world.None {
		return false
	}
	if !h.Occupied.IsNil() {
		return false
	}
	if !h.Sentinel.IsNil() {
		return false
	}
	for _, t := range h.Tasks {
		if !t.IsNil() {
			return false
		}
	}
	return true
}

// Registry is a collection of holders keyed by chunk position. It performs
// no locking of its own; callers must hold the owning schedule's mutex.
type Registry struct {
	byPos map[world.ChunkPos]*ChunkHolder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPos: make(map[world.ChunkPos]*ChunkHolder)}
}

// Get returns the holder at pos, if one exists.
func (r *Registry) Get(pos world.ChunkPos) (*ChunkHolder, bool) {
	h, ok := r.byPos[pos]
	return h, ok
}

// GetOrCreate returns the existing holder at pos, or creates one with the
// given persisted stage (used when the chunk has never had a holder before,
// e.g. a freshly discovered neighbor).
func (r *Registry) GetOrCreate(pos world.ChunkPos, persistedStage world.Stage) *ChunkHolder {
	if h, ok := r.byPos[pos]; ok {
		return h
	}
	h := New(pos, persistedStage)
	r.byPos[pos] = h
	return h
}

// Delete removes the holder at pos, if any. Callers should only do this once
// ChunkHolder.Idle() reports true and the protochunk has been saved.
func (r *Registry) Delete(pos world.ChunkPos) {
	delete(r.byPos, pos)
}

// Len returns the number of live holders.
func (r *Registry) Len() int { return len(r.byPos) }
