package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTotalOrder(t *testing.T) {
	stages := []Stage{
		None, Empty, StructureStarts, StructureReferences, Biomes, Noise,
		Surface, Carvers, Features, InitializeLight, Light, Spawn, Full,
	}
	for i := 1; i < len(stages); i++ {
		require.Less(t, stages[i-1], stages[i], "%s should be < %s", stages[i-1], stages[i])
	}
}

func TestStageNeighborRequiredPrecedesStage(t *testing.T) {
	for s := Empty; s <= Full; s++ {
		nreq := s.NeighborRequired()
		assert.Less(t, nreq, s, "nreq(%s) = %s must be strictly less than %s", s, nreq, s)
	}
}

func TestStageRadiusKnownValues(t *testing.T) {
	assert.Equal(t, int32(0), Empty.Radius())
	assert.Equal(t, int32(1), Features.Radius())
	assert.Equal(t, int32(2), Light.Radius())
	assert.Equal(t, int32(0), Spawn.Radius())
	assert.Equal(t, int32(0), Full.Radius())
}

func TestStageNext(t *testing.T) {
	n, ok := Empty.Next()
	require.True(t, ok)
	assert.Equal(t, StructureStarts, n)

	n, ok = Full.Next()
	assert.False(t, ok)
	assert.Equal(t, Full, n)
}

func TestChunkPosNeighbors(t *testing.T) {
	p := ChunkPos{X: 0, Z: 0}
	assert.Empty(t, p.Neighbors(0))
	assert.Len(t, p.Neighbors(1), 8)
	assert.Len(t, p.Neighbors(2), 24)

	for _, n := range p.Neighbors(1) {
		assert.NotEqual(t, p, n)
	}
}
