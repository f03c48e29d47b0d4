package persistence

import (
	"context"
	"sync"

	"chunkscheduler/internal/world"
)

// MemoryProvider implements Provider using in-memory storage. Useful for
// tests and short-lived processes, mirroring the teacher's MemoryCache.
type MemoryProvider struct {
	mu      sync.Mutex
	entries map[world.ChunkPos]Loaded
}

// NewMemoryProvider returns an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{entries: make(map[world.ChunkPos]Loaded)}
}

func (p *MemoryProvider) TryLoad(_ context.Context, pos world.ChunkPos) (Loaded, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.entries[pos]
	if !ok {
		return Loaded{}, false, nil
	}
	return copyLoaded(l), true, nil
}

func (p *MemoryProvider) Save(_ context.Context, pos world.ChunkPos, stage world.Stage, chunk *world.ProtoChunk) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[pos] = copyLoaded(Loaded{Stage: stage, Protochunk: chunk})
	return nil
}

// copyLoaded returns a deep copy so neither caller nor provider can mutate
// the other's state through a shared pointer.
func copyLoaded(l Loaded) Loaded {
	if l.Protochunk == nil {
		return Loaded{Stage: l.Stage}
	}
	cp := &world.ProtoChunk{
		Pos:        l.Protochunk.Pos,
		Blocks:     make(map[string][]byte, len(l.Protochunk.Blocks)),
		Heightmaps: append([]byte(nil), l.Protochunk.Heightmaps...),
		Structures: append([]byte(nil), l.Protochunk.Structures...),
		Biomes:     append([]byte(nil), l.Protochunk.Biomes...),
	}
	for k, v := range l.Protochunk.Blocks {
		cp.Blocks[k] = append([]byte(nil), v...)
	}
	return Loaded{Stage: l.Stage, Protochunk: cp}
}
