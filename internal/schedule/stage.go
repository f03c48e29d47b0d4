package schedule

import (
	"context"
	"fmt"

	"chunkscheduler/internal/world"
)

// NeighborView is the read-only accessor a StageFunc receives for the
// neighbors its stage's nreq required. It is safe to read concurrently with
// any in-flight generation because the schedule only hands it out once every
// covered neighbor has completed the required predecessor stage.
type NeighborView struct {
	chunks map[world.ChunkPos]*world.ProtoChunk
}

// Get returns the protochunk snapshot for pos, if it was part of this
// stage's neighbor requirement.
func (v NeighborView) Get(pos world.ChunkPos) (*world.ProtoChunk, bool) {
	c, ok := v.chunks[pos]
	return c, ok
}

// StageFunc is a stage's opaque unit of work: mutate chunk in place using
// only neighbors at >= nreq(stage). The schedule is oblivious to what it
// does (SPEC_FULL.md §1).
type StageFunc func(ctx context.Context, pos world.ChunkPos, chunk *world.ProtoChunk, neighbors NeighborView) error

// StageRegistry maps each real stage to its StageFunc.
type StageRegistry struct {
	funcs [world.StageCount]StageFunc
}

// NewStageRegistry returns an empty registry.
func NewStageRegistry() *StageRegistry {
	return &StageRegistry{}
}

// Register installs fn for stage. Registering Empty is allowed (it is still
// a real stage whose output is "an allocated, otherwise-blank protochunk").
func (r *StageRegistry) Register(stage world.Stage, fn StageFunc) {
	if stage < world.Empty || int(stage) >= world.StageCount {
		return
	}
	r.funcs[stage] = fn
}

// Lookup returns the registered StageFunc for stage, or an error if none has
// been registered — treated as an InvariantViolation by the caller, since a
// schedule with gaps in its stage table is misconfigured.
func (r *StageRegistry) Lookup(stage world.Stage) (StageFunc, error) {
	if stage < world.Empty || int(stage) >= world.StageCount {
		return nil, fmt.Errorf("stage %s out of range", stage)
	}
	fn := r.funcs[stage]
	if fn == nil {
		return nil, fmt.Errorf("no stage function registered for %s", stage)
	}
	return fn, nil
}
