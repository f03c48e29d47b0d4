package cli

import (
	"context"
	"fmt"

	"chunkscheduler/internal/schedule"
	"chunkscheduler/internal/world"
)

// defaultStageRegistry returns a StageRegistry wired with a placeholder body
// for every stage. SPEC_FULL.md §1 is explicit that worldgen primitives
// (feature placement, biome sampling, block tables) are out of scope — the
// core treats a stage as an opaque unit of work. These bodies exist only so
// `serve`/`bench` are runnable end to end without a real worldgen
// collaborator plugged in; they stamp a marker into the protochunk and
// otherwise do nothing.
func defaultStageRegistry() *schedule.StageRegistry {
	reg := schedule.NewStageRegistry()
	for stage := world.Empty; stage <= world.Full; stage++ {
		s := stage
		reg.Register(s, func(_ context.Context, pos world.ChunkPos, chunk *world.ProtoChunk, _ schedule.NeighborView) error {
			if chunk.Blocks == nil {
				chunk.Blocks = make(map[string][]byte)
			}
			chunk.Blocks[s.String()] = []byte(fmt.Sprintf("stage:%s pos:%s", s, pos))
			return nil
		})
	}
	return reg
}
