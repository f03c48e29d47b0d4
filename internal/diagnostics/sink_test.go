package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkscheduler/internal/trace"
	"chunkscheduler/internal/world"
)

func TestFailureSinkPersistsOnlyStageFailedEvents(t *testing.T) {
	log, err := NewFailureLog(t.TempDir())
	require.NoError(t, err)
	sink := NewFailureSink(log, nil)

	pos := world.ChunkPos{X: 1, Z: 1}
	sink.Record(trace.Event{Kind: trace.EventStageQueued, Pos: pos, Stage: world.Noise})
	sink.Record(trace.Event{Kind: trace.EventStageFailed, Pos: pos, Stage: world.Noise, Reason: "neighbor load failed"})

	rec, ok, err := log.Load(pos, world.Noise)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "neighbor load failed", rec.Message)

	all, err := log.List()
	require.NoError(t, err)
	assert.Len(t, all, 1, "only the StageFailed event should have been persisted")
}
