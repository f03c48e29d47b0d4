package diagnostics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkscheduler/internal/world"
)

func TestFailureLogRoundTrip(t *testing.T) {
	log, err := NewFailureLog(t.TempDir())
	require.NoError(t, err)

	pos := world.ChunkPos{X: 2, Z: -3}
	rec := FailureRecord{
		Pos:        pos,
		Stage:      world.Surface,
		Kind:       "StageFailure",
		Message:    "boom",
		RecordedAt: time.Now().UTC(),
	}
	require.NoError(t, log.Record(rec))

	got, ok, err := log.Load(pos, world.Surface)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Kind, got.Kind)
	assert.Equal(t, rec.Message, got.Message)
	assert.Equal(t, rec.Pos, got.Pos)
}

func TestFailureLogLoadMissingReturnsNotFound(t *testing.T) {
	log, err := NewFailureLog(t.TempDir())
	require.NoError(t, err)

	_, ok, err := log.Load(world.ChunkPos{X: 9, Z: 9}, world.Full)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailureLogListIsSortedAndDeterministic(t *testing.T) {
	log, err := NewFailureLog(t.TempDir())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, log.Record(FailureRecord{Pos: world.ChunkPos{X: 5}, Stage: world.Empty, Kind: "StageFailure", Message: "b", RecordedAt: now}))
	require.NoError(t, log.Record(FailureRecord{Pos: world.ChunkPos{X: 1}, Stage: world.Noise, Kind: "StageFailure", Message: "a", RecordedAt: now}))

	all, err := log.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int32(1), all[0].Pos.X)
	assert.Equal(t, int32(5), all[1].Pos.X)
}

func TestRecordValidateRejectsMissingFields(t *testing.T) {
	rec := FailureRecord{}
	assert.Error(t, rec.Validate())
}
