package world

import "fmt"

// ChunkPos is the (x, z) chunk-grid coordinate of a 16x16-column chunk.
type ChunkPos struct {
	X int32
	Z int32
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Z)
}

// Neighbors returns every ChunkPos within Chebyshev distance r of p,
// excluding p itself. Order is deterministic: rows of increasing Z, then
// increasing X within a row.
func (p ChunkPos) Neighbors(r int32) []ChunkPos {
	if r <= 0 {
		return nil
	}
	out := make([]ChunkPos, 0, (2*r+1)*(2*r+1)-1)
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dz == 0 {
				continue
			}
			out = append(out, ChunkPos{X: p.X + dx, Z: p.Z + dz})
		}
	}
	return out
}
