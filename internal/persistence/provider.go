// Package persistence implements the scheduler's only collaborator contract
// for chunk storage: try_load(pos) and save(pos, stage, protochunk)
// (SPEC_FULL.md §6). The core never inspects a persisted chunk's layout; it
// only cares whether a load succeeded and which stage it recovered.
package persistence

import (
	"context"

	"chunkscheduler/internal/world"
)

// Loaded is the result of a successful TryLoad: the highest stage a chunk
// had reached, plus its protochunk buffer as it stood at that point.
type Loaded struct {
	Stage      world.Stage
	Protochunk *world.ProtoChunk
}

// Provider is the persistence contract the schedule depends on. A failed
// load is reported as an error and treated by the schedule as
// NeighborLoadFailure — "as if the neighbor were at stage None"
// (SPEC_FULL.md §7) — rather than surfaced to the caller as fatal.
type Provider interface {
	// TryLoad returns (Loaded, true, nil) if pos has a persisted chunk, or
	// (Loaded{}, false, nil) if none exists yet. A non-nil error indicates
	// the load itself failed (corrupt data, I/O error).
	TryLoad(ctx context.Context, pos world.ChunkPos) (Loaded, bool, error)

	// Save persists pos at stage with the given protochunk contents.
	Save(ctx context.Context, pos world.ChunkPos, stage world.Stage, chunk *world.ProtoChunk) error
}
