package dag

import (
	"container/heap"

	"chunkscheduler/internal/world"
)

// QueueEntry is a single runnable-task record in the ReadyQueue.
type QueueEntry struct {
	Node     NodeKey
	Priority uint8
	Stage    world.Stage
	seq      uint64
}

// ReadyQueue is a max-heap of QueueEntry ordered by (priority desc, stage
// asc, seq asc): higher ticket priority runs first; among equal priority the
// laggard stage runs first to unblock more work; ties break FIFO by
// insertion sequence for determinism in tests (SPEC_FULL.md §4.2).
//
// Built on container/heap over a slice, the same stdlib facility the
// teacher's graph validation and failure-propagation code uses for its
// deterministic orderings, just keyed on priority instead of canonical
// index.
type ReadyQueue struct {
	h      entryHeap
	nextSeq uint64
}

// NewReadyQueue returns an empty queue.
func NewReadyQueue() *ReadyQueue {
	q := &ReadyQueue{}
	heap.Init(&q.h)
	return q
}

// Len returns the number of entries currently queued, including any that
// may reference since-dropped nodes.
func (q *ReadyQueue) Len() int { return q.h.Len() }

// Push admits key to the queue at the given priority/stage. The caller is
// responsible for setting Node.Queued = true on the referenced node.
func (q *ReadyQueue) Push(key NodeKey, priority uint8, stage world.Stage) {
	heap.Push(&q.h, QueueEntry{Node: key, Priority: priority, Stage: stage, seq: q.nextSeq})
	q.nextSeq++
}

// Pop removes and returns entries until it finds one whose node is still
// live (per isLive), discarding stale entries along the way, or until the
// queue is exhausted. The second return value is false iff the queue ran
// dry without finding a live entry.
func (q *ReadyQueue) Pop(isLive func(NodeKey) bool) (QueueEntry, bool) {
	for q.h.Len() > 0 {
		e := heap.Pop(&q.h).(QueueEntry)
		if isLive == nil || isLive(e.Node) {
			return e, true
		}
	}
	return QueueEntry{}, false
}

type entryHeap []QueueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Priority != b.Priority {
		return a.Priority > b.Priority // higher priority first
	}
	if a.Stage != b.Stage {
		return a.Stage < b.Stage // lower (laggard) stage first
	}
	return a.seq < b.seq // FIFO tie-break
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(QueueEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
