package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkscheduler/internal/dag"
	"chunkscheduler/internal/world"
)

// These scenarios exercise ensureDependencyChain directly, the same call
// internal/schedule's public API (AddTicket, Tick) drives indirectly. Every
// scenario that builds a chain seeds (0,0)'s radius-1 neighbors at world.Full
// first (the already-met and early-return scenarios exit before step 6), so the
// cross-chunk recursion in step 6 always early-exits without adding edges
// back into the chunk under test — isolating the intra-chain bookkeeping the
// scenarios assert on from the neighbor-wiring recursion covered separately
// by TestEnsureDependencyChainWiresLaggardNeighbor.
func newTestSchedule() *GenerationSchedule {
	return New(Config{})
}

func seedNeighborsAtFull(s *GenerationSchedule, pos world.ChunkPos) {
	for _, n := range pos.Neighbors(1) {
		s.holders.GetOrCreate(n, world.Full)
	}
}

func TestEnsureDependencyChain_MultistageBuild(t *testing.T) {
	s := newTestSchedule()
	pos := world.ChunkPos{X: 0, Z: 0}
	seedNeighborsAtFull(s, pos)

	h := s.holders.GetOrCreate(pos, world.None)
	dependent := s.graph.Insert(dag.Node{Pos: world.ChunkPos{X: 10, Z: 10}, Stage: world.Features})

	s.ensureDependencyChain(context.Background(), dependent, pos, h, world.Surface)

	for stage := world.Empty; stage <= world.Surface; stage++ {
		require.Falsef(t, h.Tasks[stage].IsNil(), "tasks[%s] should be non-nil", stage)
	}

	emptyNode, ok := s.graph.Get(h.Tasks[world.Empty])
	require.True(t, ok)
	assert.Equal(t, uint32(0), emptyNode.InDegree)
	assert.True(t, emptyNode.Queued)

	for stage := world.StructureStarts; stage <= world.Surface; stage++ {
		n, ok := s.graph.Get(h.Tasks[stage])
		require.True(t, ok)
		assert.Equalf(t, uint32(1), n.InDegree, "tasks[%s].InDegree", stage)
	}

	dNode, ok := s.graph.Get(dependent)
	require.True(t, ok)
	assert.Equal(t, uint32(1), dNode.InDegree)
}

func TestEnsureDependencyChain_Resume(t *testing.T) {
	s := newTestSchedule()
	pos := world.ChunkPos{X: 0, Z: 0}
	seedNeighborsAtFull(s, pos)

	h := s.holders.GetOrCreate(pos, world.Biomes)
	dependent := s.graph.Insert(dag.Node{Pos: world.ChunkPos{X: 10, Z: 10}, Stage: world.Features})

	s.ensureDependencyChain(context.Background(), dependent, pos, h, world.Surface)

	for stage := world.Empty; stage <= world.Biomes; stage++ {
		assert.Truef(t, h.Tasks[stage].IsNil(), "tasks[%s] must remain null", stage)
	}

	noiseNode, ok := s.graph.Get(h.Tasks[world.Noise])
	require.True(t, ok)
	assert.Equal(t, uint32(0), noiseNode.InDegree)
	assert.True(t, noiseNode.Queued)

	surfaceNode, ok := s.graph.Get(h.Tasks[world.Surface])
	require.True(t, ok)
	assert.Equal(t, uint32(1), surfaceNode.InDegree)
}

func TestEnsureDependencyChain_AlreadyMet(t *testing.T) {
	s := newTestSchedule()
	pos := world.ChunkPos{X: 0, Z: 0}

	h := s.holders.GetOrCreate(pos, world.Full)
	dependent := s.graph.Insert(dag.Node{Pos: world.ChunkPos{X: 10, Z: 10}, Stage: world.Features})

	s.ensureDependencyChain(context.Background(), dependent, pos, h, world.Surface)

	for stage := world.Empty; stage <= world.Full; stage++ {
		assert.Truef(t, h.Tasks[stage].IsNil(), "tasks[%s] must stay null", stage)
	}
	assert.Equal(t, 0, s.queue.Len())

	dNode, ok := s.graph.Get(dependent)
	require.True(t, ok)
	assert.Equal(t, uint32(0), dNode.InDegree)
}

func TestEnsureDependencyChain_OccupiedLock(t *testing.T) {
	s := newTestSchedule()
	pos := world.ChunkPos{X: 0, Z: 0}
	seedNeighborsAtFull(s, pos)

	h := s.holders.GetOrCreate(pos, world.None)
	h.Occupied = s.graph.Insert(dag.Node{Pos: pos, Stage: world.None, Sentinel: true})
	dependent := s.graph.Insert(dag.Node{Pos: world.ChunkPos{X: 10, Z: 10}, Stage: world.Features})

	s.ensureDependencyChain(context.Background(), dependent, pos, h, world.Surface)

	emptyNode, ok := s.graph.Get(h.Tasks[world.Empty])
	require.True(t, ok)
	assert.Equal(t, uint32(1), emptyNode.InDegree)
	assert.False(t, emptyNode.Queued)
	assert.Equal(t, 0, s.queue.Len())
}

func TestEnsureDependencyChain_CancellationUnwind(t *testing.T) {
	s := newTestSchedule()
	pos := world.ChunkPos{X: 0, Z: 0}
	seedNeighborsAtFull(s, pos)

	h := s.holders.GetOrCreate(pos, world.None)
	h.Occupied = s.graph.Insert(dag.Node{Pos: pos, Stage: world.None, Sentinel: true})
	dependent := s.graph.Insert(dag.Node{Pos: world.ChunkPos{X: 10, Z: 10}, Stage: world.Features})

	s.ensureDependencyChain(context.Background(), dependent, pos, h, world.Surface)

	occupied := h.Occupied
	tasks := h.Tasks

	s.dropAndAdmit(occupied)
	h.Occupied = dag.NilNodeKey
	_, ok := s.graph.Get(occupied)
	assert.False(t, ok, "occupied pseudo-node should be removed")

	emptyNode, ok := s.graph.Get(tasks[world.Empty])
	require.True(t, ok)
	assert.Equal(t, uint32(0), emptyNode.InDegree, "releasing occupied frees exactly its one edge")
	assert.True(t, emptyNode.Queued, "freed task should have been admitted")

	for stage := world.Empty; stage <= world.Surface; stage++ {
		s.dropAndAdmit(tasks[stage])
		h.Tasks[stage] = dag.NilNodeKey
		_, ok := s.graph.Get(tasks[stage])
		assert.Falsef(t, ok, "tasks[%s] entry should be removed", stage)
	}

	dNode, ok := s.graph.Get(dependent)
	require.True(t, ok)
	assert.Equal(t, uint32(0), dNode.InDegree, "dependent loses exactly the edge Surface's task held")
}

func TestEnsureDependencyChain_EarlyReturnPreservesDependent(t *testing.T) {
	s := newTestSchedule()
	pos := world.ChunkPos{X: 0, Z: 0}

	h := s.holders.GetOrCreate(pos, world.Features)
	dependent := s.graph.Insert(dag.Node{Pos: world.ChunkPos{X: 10, Z: 10}, Stage: world.Features})

	s.ensureDependencyChain(context.Background(), dependent, pos, h, world.Empty)

	for stage := world.Empty; stage <= world.Full; stage++ {
		assert.Truef(t, h.Tasks[stage].IsNil(), "no task should have been created at %s", stage)
	}

	dNode, ok := s.graph.Get(dependent)
	require.True(t, ok)
	assert.Equal(t, uint32(0), dNode.InDegree)
}

// TestEnsureDependencyChainWiresLaggardNeighbor covers the cross-chunk
// recursion step 6 skips in the scenarios above: a neighbor that has not yet
// reached the required stage gets its own chain, ending in an edge back into
// the requesting chunk's task, so the task cannot run until the neighbor
// catches up.
func TestEnsureDependencyChainWiresLaggardNeighbor(t *testing.T) {
	s := newTestSchedule()
	pos := world.ChunkPos{X: 0, Z: 0}
	neighbor := world.ChunkPos{X: 1, Z: 0}
	for _, n := range pos.Neighbors(1) {
		if n == neighbor {
			continue
		}
		s.holders.GetOrCreate(n, world.Full)
	}

	h := s.holders.GetOrCreate(pos, world.None)
	dependent := s.graph.Insert(dag.Node{Pos: world.ChunkPos{X: 10, Z: 10}, Stage: world.Features})

	s.ensureDependencyChain(context.Background(), dependent, pos, h, world.StructureStarts)

	nh, ok := s.holders.Get(neighbor)
	require.True(t, ok, "a holder should have been created for the laggard neighbor")
	require.False(t, nh.Tasks[world.Empty].IsNil())

	ssNode, ok := s.graph.Get(h.Tasks[world.StructureStarts])
	require.True(t, ok)
	assert.Equal(t, uint32(2), ssNode.InDegree, "intra-chain edge plus the neighbor's Empty task")
}
