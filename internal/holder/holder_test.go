package holder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkscheduler/internal/dag"
	"chunkscheduler/internal/world"
)

func TestNewHolderAllSlotsNil(t *testing.T) {
	h := New(world.ChunkPos{X: 0, Z: 0}, world.None)
	for i, k := range h.Tasks {
		assert.True(t, k.IsNil(), "task slot %d should start nil", i)
	}
	assert.True(t, h.Occupied.IsNil())
	assert.True(t, h.Sentinel.IsNil())
	assert.True(t, h.Idle())
}

func TestHolderNotIdleWithSentinel(t *testing.T) {
	h := New(world.ChunkPos{}, world.None)
	h.Sentinel = dag.NodeKey{Index: 1}
	assert.False(t, h.Idle())
}

func TestHolderNotIdleWithTarget(t *testing.T) {
	h := New(world.ChunkPos{}, world.None)
	h.TargetStage = world.Surface
	assert.False(t, h.Idle())
}

func TestHolderNotIdleWithTask(t *testing.T) {
	h := New(world.ChunkPos{}, world.None)
	h.Tasks[world.Empty] = dag.NodeKey{Index: 1}
	assert.False(t, h.Idle())
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()
	pos := world.ChunkPos{X: 3, Z: 4}

	h1 := r.GetOrCreate(pos, world.Biomes)
	assert.Equal(t, world.Biomes, h1.CurrentStage)

	h2 := r.GetOrCreate(pos, world.Full)
	assert.Same(t, h1, h2, "second call must return the same holder, not overwrite it")
	assert.Equal(t, world.Biomes, h2.CurrentStage)

	got, ok := r.Get(pos)
	require.True(t, ok)
	assert.Same(t, h1, got)

	assert.Equal(t, 1, r.Len())
	r.Delete(pos)
	assert.Equal(t, 0, r.Len())
}
