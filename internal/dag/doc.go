// Package dag implements the per-(chunk, stage) task graph: a generational
// slot-map of nodes connected by an intrusive singly-linked outgoing-edge
// list, plus a priority-ordered ReadyQueue of runnable tasks.
//
// The graph is mutated continuously as chains are built and torn down, so
// unlike a build-once task graph it must tolerate node deletion and reuse;
// NodeKey carries a generation counter so a handle captured before a drop is
// detected as stale rather than silently aliasing a reused slot.
package dag
