package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"chunkscheduler/internal/world"
)

// FileProvider implements Provider on the filesystem, adapted from the
// teacher's FileCache: entries are sharded into subdirectories and every
// write goes through a temp-file-then-rename so a crash mid-write leaves
// either the old entry or nothing, never a corrupt one.
//
// Layout:
//
//	{RegionDir}/
//	  {shard}/
//	    {x}.{z}.json
//
// where shard is the chunk position's region coordinate (x >> 5, z >> 5)
// rendered as "r.rx.rz", mirroring real region-file sharding so a directory
// never accumulates more than a region's worth of entries.
type FileProvider struct {
	RegionDir string
}

// NewFileProvider returns a file-backed provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{RegionDir: dir}
}

type chunkRecord struct {
	Stage      world.Stage       `json:"stage"`
	Blocks     map[string][]byte `json:"blocks,omitempty"`
	Heightmaps []byte            `json:"heightmaps,omitempty"`
	Structures []byte            `json:"structures,omitempty"`
	Biomes     []byte            `json:"biomes,omitempty"`
}

func (p *FileProvider) shardDir(pos world.ChunkPos) string {
	rx := pos.X >> 5
	rz := pos.Z >> 5
	return filepath.Join(p.RegionDir, fmt.Sprintf("r.%d.%d", rx, rz))
}

func (p *FileProvider) entryPath(pos world.ChunkPos) string {
	return filepath.Join(p.shardDir(pos), fmt.Sprintf("%d.%d.json", pos.X, pos.Z))
}

func (p *FileProvider) TryLoad(_ context.Context, pos world.ChunkPos) (Loaded, bool, error) {
	data, err := os.ReadFile(p.entryPath(pos))
	if err != nil {
		if os.IsNotExist(err) {
			return Loaded{}, false, nil
		}
		return Loaded{}, false, fmt.Errorf("reading chunk %s: %w", pos, err)
	}

	var rec chunkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Loaded{}, false, fmt.Errorf("parsing chunk %s: %w", pos, err)
	}

	return Loaded{
		Stage: rec.Stage,
		Protochunk: &world.ProtoChunk{
			Pos:        pos,
			Blocks:     rec.Blocks,
			Heightmaps: rec.Heightmaps,
			Structures: rec.Structures,
			Biomes:     rec.Biomes,
		},
	}, true, nil
}

func (p *FileProvider) Save(_ context.Context, pos world.ChunkPos, stage world.Stage, chunk *world.ProtoChunk) error {
	rec := chunkRecord{Stage: stage}
	if chunk != nil {
		rec.Blocks = chunk.Blocks
		rec.Heightmaps = chunk.Heightmaps
		rec.Structures = chunk.Structures
		rec.Biomes = chunk.Biomes
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling chunk %s: %w", pos, err)
	}

	dir := p.shardDir(pos)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating region dir: %w", err)
	}
	return writeFileAtomic(p.entryPath(pos), data, 0o644)
}

// writeFileAtomic writes data to a temp file in path's directory, then
// renames it into place, matching FileCache.writeFileAtomic in the teacher.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
