package stagerunner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkscheduler/internal/schedule"
	"chunkscheduler/internal/ticket"
	"chunkscheduler/internal/world"
)

func newCountingRegistry(calls *int64) *schedule.StageRegistry {
	reg := schedule.NewStageRegistry()
	for stage := world.Empty; stage <= world.Full; stage++ {
		reg.Register(stage, func(ctx context.Context, pos world.ChunkPos, chunk *world.ProtoChunk, neighbors schedule.NeighborView) error {
			atomic.AddInt64(calls, 1)
			return nil
		})
	}
	return reg
}

func TestPoolDrainsQueueUntilChunkReachesTarget(t *testing.T) {
	var calls int64
	sched := schedule.New(schedule.Config{Stages: newCountingRegistry(&calls)})
	pool := New(sched, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = pool.Run(ctx)
	}()

	var fired int32
	sched.OnChunkReady(world.ChunkPos{X: 0, Z: 0}, world.Surface, func(world.ChunkPos, world.Stage) {
		atomic.StoreInt32(&fired, 1)
	})

	sched.AddTicket(ctx, ticket.Ticket{Kind: ticket.Player, Pos: world.ChunkPos{X: 0, Z: 0}, Stage: world.Surface, Priority: 5})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, 2*time.Second, 5*time.Millisecond, "chunk never reached Surface")

	cancel()
	wg.Wait()

	assert.True(t, atomic.LoadInt64(&calls) > 0)
}

func TestPoolSizeDefaultsToAtLeastOne(t *testing.T) {
	sched := schedule.New(schedule.Config{})
	pool := New(sched, 0, nil)
	assert.GreaterOrEqual(t, pool.Size(), int64(1))
}
