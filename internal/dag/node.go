package dag

import "chunkscheduler/internal/world"

const nilIndex = ^uint32(0)

// NodeKey is a stable, nullable handle into a DAG's node slab. Index
// addresses the slot; Generation must match the slot's current generation
// for the key to be considered live. A key captured before its node is
// dropped becomes stale once the slot is reused, and any lookup through it
// returns (Node{}, false) rather than aliasing the new occupant.
type NodeKey struct {
	Index      uint32
	Generation uint32
}

// NilNodeKey is the canonical "no node" value.
var NilNodeKey = NodeKey{Index: nilIndex}

// IsNil reports whether k refers to no node.
func (k NodeKey) IsNil() bool { return k.Index == nilIndex }

// EdgeKey is a stable handle into a DAG's edge slab; nil means "no edge".
type EdgeKey struct {
	index uint32
}

var nilEdgeKey = EdgeKey{index: nilIndex}

// IsNil reports whether k refers to no edge.
func (k EdgeKey) IsNil() bool { return k.index == nilIndex }

// Node is a single per-(chunk, stage) task.
type Node struct {
	Pos   world.ChunkPos
	Stage world.Stage

	// InDegree is the exact count of live incoming edges; never incremented
	// speculatively (invariant 4, SPEC_FULL.md §3).
	InDegree uint32

	// edge is the head of this node's singly-linked outgoing-edge list.
	edge EdgeKey

	// Queued reports whether this node has been pushed to the ReadyQueue
	// since its last in_degree-to-zero transition.
	Queued bool

	// Sentinel marks a ticket-delivery node (SPEC_FULL.md §4.5): it runs no
	// generation code, it only exists so ensure_dependency_chain's ordinary
	// machinery can drive a ticket's target stage to completion.
	Sentinel bool
}

// edge is the intrusive outgoing-edge list cell: {to, next}.
type edge struct {
	to   NodeKey
	next EdgeKey
}

type nodeSlot struct {
	node       Node
	generation uint32
	live       bool
}

type edgeSlot struct {
	edge edge
	live bool
}
