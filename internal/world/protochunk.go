package world

// ProtoChunk is the mutable buffer stage functions read and write as a chunk
// advances from Empty to Full. The scheduler never interprets its contents;
// worldgen primitives (biome sampling, feature placement, block tables) are
// out of scope here (SPEC_FULL.md §1) and own the actual layout.
type ProtoChunk struct {
	Pos ChunkPos

	// Blocks is a placeholder payload standing in for the real column/section
	// data a worldgen implementation would store here. Stage functions are
	// free to treat it as an opaque scratch area keyed however they like.
	Blocks map[string][]byte

	// Heightmaps, Structures, and Biomes mirror the broad categories of
	// output a real pipeline accumulates per stage; kept as opaque blobs for
	// the same reason as Blocks.
	Heightmaps []byte
	Structures []byte
	Biomes     []byte
}

// NewProtoChunk allocates an empty buffer for pos, as created when a holder
// first reaches Empty.
func NewProtoChunk(pos ChunkPos) *ProtoChunk {
	return &ProtoChunk{
		Pos:    pos,
		Blocks: make(map[string][]byte),
	}
}
