// Package schedule implements the generation schedule: the dependency-aware
// algorithm that turns tickets into DAG chains, drains completions, and
// unwinds cancellations (SPEC_FULL.md §4.3). Everything here is guarded by
// a single coarse structural lock; stage bodies run outside it
// (SPEC_FULL.md §5).
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"chunkscheduler/internal/dag"
	"chunkscheduler/internal/holder"
	"chunkscheduler/internal/metrics"
	"chunkscheduler/internal/persistence"
	"chunkscheduler/internal/ticket"
	"chunkscheduler/internal/trace"
	"chunkscheduler/internal/world"
)

// CompletionCallback fires exactly once when a chunk's current_stage first
// crosses the subscribed stage.
type CompletionCallback func(pos world.ChunkPos, stage world.Stage)

type completionSub struct {
	stage world.Stage
	cb    CompletionCallback
}

// GenerationSchedule is the core scheduling algorithm: ensure_dependency_chain,
// on_complete, cancellation, and ticket-driven (re)wiring, all behind one
// mutex (mirroring the teacher's single Executor.mu in internal/dag/executor.go).
type GenerationSchedule struct {
	mu sync.Mutex

	graph   *dag.DAG
	holders *holder.Registry
	queue   *dag.ReadyQueue
	tickets *ticket.Manager

	stages      *StageRegistry
	persistence persistence.Provider

	trace   trace.Sink
	metrics metrics.Sink
	logger  *slog.Logger

	subs  map[world.ChunkPos][]completionSub
	ready chan struct{}
}

// Config wires a GenerationSchedule's collaborators.
type Config struct {
	Stages      *StageRegistry
	Persistence persistence.Provider
	Trace       trace.Sink
	Metrics     metrics.Sink
	Logger      *slog.Logger
}

// New returns a ready-to-use schedule. A nil Trace/Metrics falls back to an
// inert no-op, a nil Logger to slog.Default(), a nil Persistence to an
// in-memory provider, and nil Stages to an empty registry.
func New(cfg Config) *GenerationSchedule {
	if cfg.Persistence == nil {
		cfg.Persistence = persistence.NewMemoryProvider()
	}
	if cfg.Stages == nil {
		cfg.Stages = NewStageRegistry()
	}
	if cfg.Trace == nil {
		cfg.Trace = trace.NopSink{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &GenerationSchedule{
		graph:       dag.New(),
		holders:     holder.NewRegistry(),
		queue:       dag.NewReadyQueue(),
		tickets:     ticket.NewManager(),
		stages:      cfg.Stages,
		persistence: cfg.Persistence,
		trace:       cfg.Trace,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		subs:        make(map[world.ChunkPos][]completionSub),
		ready:       make(chan struct{}, 1),
	}
}

// Ready returns a channel that receives a value whenever a task is admitted
// to the ReadyQueue. It is a hint, not a guarantee: callers must still handle
// PopReady returning ok=false (another worker may have taken the work, or the
// entry was stale). StageRunner selects on this alongside ctx.Done() instead
// of busy-polling.
func (s *GenerationSchedule) Ready() <-chan struct{} { return s.ready }

// wake performs a non-blocking notify; a full buffer means a wake is already
// pending, which is sufficient.
func (s *GenerationSchedule) wake() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// OnChunkReady registers cb to fire exactly once when pos first reaches
// stage (or immediately, synchronously, if it already has).
func (s *GenerationSchedule) OnChunkReady(pos world.ChunkPos, stage world.Stage, cb CompletionCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holders.Get(pos)
	if ok && h.CurrentStage >= stage {
		cb(pos, h.CurrentStage)
		return
	}
	s.subs[pos] = append(s.subs[pos], completionSub{stage: stage, cb: cb})
}

// holderFor returns the holder for pos, creating it (and attempting a
// persistence load) if this is the first time the schedule has seen pos.
// Must be called with s.mu held.
func (s *GenerationSchedule) holderFor(ctx context.Context, pos world.ChunkPos) *holder.ChunkHolder {
	if h, ok := s.holders.Get(pos); ok {
		return h
	}

	loaded, ok, err := s.persistence.TryLoad(ctx, pos)
	if err != nil {
		// NeighborLoadFailure: treat as if the chunk were at stage None
		// (SPEC_FULL.md §7).
		s.logger.Warn("chunk load failed, treating as stage None",
			"pos", pos.String(), "error", newNeighborLoadFailure(pos, err))
		h := s.holders.GetOrCreate(pos, world.None)
		s.metrics.SetHolders(s.holders.Len())
		return h
	}
	if !ok {
		h := s.holders.GetOrCreate(pos, world.None)
		s.metrics.SetHolders(s.holders.Len())
		return h
	}

	h := s.holders.GetOrCreate(pos, loaded.Stage)
	h.Protochunk = loaded.Protochunk
	s.metrics.SetHolders(s.holders.Len())
	return h
}

// AddTicket registers t and re-drives the chain for its chunk if the
// aggregate demand rose, or cancels/trims it if the aggregate somehow fell
// (e.g. a lower-priority ticket replacing a higher one by the same ID).
func (s *GenerationSchedule) AddTicket(ctx context.Context, t ticket.Ticket) ticket.Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := s.tickets.Add(t)
	s.reconcile(ctx, t.Pos, agg)
	return agg
}

// RemoveTicket withdraws ticket id from pos and re-drives/cancels as needed.
func (s *GenerationSchedule) RemoveTicket(ctx context.Context, pos world.ChunkPos, id uuid.UUID) ticket.Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := s.tickets.Remove(pos, id)
	s.reconcile(ctx, pos, agg)
	return agg
}

// Tick decays ticket TTLs and reconciles every chunk whose demand changed as
// a result (SPEC_FULL.md §4.5). The schedule runs no timer of its own: the
// caller drives it from a single time.Ticker (the serve command does), not
// one timer per ticket.
func (s *GenerationSchedule) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pos, agg := range s.tickets.Tick(now) {
		s.reconcile(ctx, pos, agg)
	}
}

// reconcile applies a chunk's new aggregate ticket demand: rising demand
// extends the chain via ensure_dependency_chain with a sentinel delivery
// task; falling demand trims whatever is now only there for the withdrawn
// demand. Must be called with s.mu held.
func (s *GenerationSchedule) reconcile(ctx context.Context, pos world.ChunkPos, agg ticket.Aggregate) {
	h := s.holderFor(ctx, pos)
	h.TicketLevel = agg.Priority

	switch {
	case agg.TargetStage > h.TargetStage:
		h.TargetStage = agg.TargetStage
		if !h.Sentinel.IsNil() {
			s.dropAndAdmit(h.Sentinel)
		}
		sentinelKey := s.graph.Insert(dag.Node{Pos: pos, Stage: agg.TargetStage, Sentinel: true})
		h.Sentinel = sentinelKey
		s.ensureDependencyChain(ctx, sentinelKey, pos, h, agg.TargetStage)

	case agg.TargetStage < h.TargetStage:
		h.TargetStage = agg.TargetStage
		s.lowerTarget(ctx, h, agg.TargetStage)
		if h.Idle() {
			s.holders.Delete(pos)
			s.metrics.SetHolders(s.holders.Len())
		}

	default:
		// Same target, possibly a priority-only change: update ReadyQueue
		// entries lazily (their priority is read fresh at push time; any
		// stale lower-priority entry already in the queue is harmless, it
		// just reorders on the next push).
	}
}

// ensureDependencyChain implements SPEC_FULL.md §4.3.1. Must be called with
// s.mu held.
func (s *GenerationSchedule) ensureDependencyChain(ctx context.Context, dependentTask dag.NodeKey, pos world.ChunkPos, h *holder.ChunkHolder, requiredStage world.Stage) {
	// Step 1: early exit.
	if h.CurrentStage >= requiredStage {
		return
	}

	start := h.CurrentStage + 1
	if start < world.Empty {
		start = world.Empty
	}
	end := requiredStage
	if start > end {
		return
	}
	s.metrics.ObserveChainLength(float64(end - start + 1))

	// Step 3: create missing task nodes.
	var created [world.StageCount]bool
	for i := start; i <= end; i++ {
		if h.Tasks[i].IsNil() {
			key := s.graph.Insert(dag.Node{Pos: pos, Stage: i})
			h.Tasks[i] = key
			created[i] = true
		}
	}

	for i := start; i <= end; i++ {
		if !created[i] {
			continue
		}

		// Step 4: intra-chain predecessor edge.
		if i > start {
			s.graph.AddEdge(h.Tasks[i-1], h.Tasks[i])
		}

		// Step 5: occupancy gating.
		if i == start && !h.Occupied.IsNil() {
			s.graph.AddEdge(h.Occupied, h.Tasks[start])
		}

		// Step 6: cross-chunk recursion.
		radius := i.Radius()
		if radius > 0 {
			nreq := i.NeighborRequired()
			for _, npos := range pos.Neighbors(radius) {
				nh := s.holderFor(ctx, npos)
				s.ensureDependencyChain(ctx, h.Tasks[i], npos, nh, nreq)
			}
		}
	}

	// Step 7: dependent edge (always added, even when nothing was freshly
	// created this call — dependentTask is new every call).
	s.graph.AddEdge(h.Tasks[end], dependentTask)

	// Step 8: admission.
	s.admit(h.Tasks[start])
}

// admit pushes key to the ReadyQueue if its in-degree is zero and it is not
// already queued. Must be called with s.mu held.
func (s *GenerationSchedule) admit(key dag.NodeKey) {
	n, ok := s.graph.Get(key)
	if !ok || n.InDegree != 0 || n.Queued {
		return
	}
	h, ok := s.holders.Get(n.Pos)
	priority := uint8(0)
	if ok {
		priority = h.TicketLevel
	}
	s.queue.Push(key, priority, n.Stage)
	s.graph.SetQueued(key, true)
	s.metrics.SetQueueDepth(s.queue.Len())
	s.wake()
}

// dropAndAdmit drops key and admits any successor whose in-degree reaches
// zero as a result. Must be called with s.mu held.
func (s *GenerationSchedule) dropAndAdmit(key dag.NodeKey) {
	for _, r := range s.graph.DropNode(key) {
		s.admit(r)
	}
	s.metrics.IncDroppedNodes()
}

// lowerTarget drops the obsolete sentinel plus every task whose stage
// exceeds newTarget — the portion of the chain that existed only for the
// withdrawn demand — cancelling via the same drop_node mechanism used for
// normal completions (SPEC_FULL.md §4.3.3, §4.5). Must be called with s.mu
// held.
func (s *GenerationSchedule) lowerTarget(ctx context.Context, h *holder.ChunkHolder, newTarget world.Stage) {
	if !h.Sentinel.IsNil() {
		s.dropAndAdmit(h.Sentinel)
		h.Sentinel = dag.NilNodeKey
	}

	for stage := world.Full; stage > newTarget; stage-- {
		if stage < world.Empty {
			break
		}
		k := h.Tasks[stage]
		if k.IsNil() {
			continue
		}
		h.Tasks[stage] = dag.NilNodeKey
		s.dropAndAdmit(k)
	}

	if newTarget == world.None && !h.Occupied.IsNil() {
		k := h.Occupied
		h.Occupied = dag.NilNodeKey
		s.dropAndAdmit(k)
	}

	_ = ctx
}

// Occupy installs a pseudo-node blocking new tasks at pos until Release is
// called, returning false if the chunk is already occupied.
func (s *GenerationSchedule) Occupy(ctx context.Context, pos world.ChunkPos) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.holderFor(ctx, pos)
	if !h.Occupied.IsNil() {
		return false
	}
	h.Occupied = s.graph.Insert(dag.Node{Pos: pos, Stage: h.CurrentStage, Sentinel: true})
	return true
}

// Release clears pos's occupancy lock, admitting anything it had been
// gating.
func (s *GenerationSchedule) Release(pos world.ChunkPos) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holders.Get(pos)
	if !ok || h.Occupied.IsNil() {
		return
	}
	k := h.Occupied
	h.Occupied = dag.NilNodeKey
	s.dropAndAdmit(k)
}

// PopReady removes the next runnable entry from the ReadyQueue, discarding
// stale (dropped) entries as it goes. Called by StageRunner workers.
func (s *GenerationSchedule) PopReady() (dag.QueueEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.queue.Pop(s.graph.Live)
	if ok {
		s.graph.SetQueued(e.Node, false)
	}
	s.metrics.SetQueueDepth(s.queue.Len())
	return e, ok
}

// RunTask executes the stage (or sentinel no-op) at entry.Node and applies
// its result: success drives on_complete, failure drives per-chunk
// cancellation (SPEC_FULL.md §4.4). It must be called without s.mu held —
// the lock is only taken for the structural bookends.
func (s *GenerationSchedule) RunTask(ctx context.Context, entry dag.QueueEntry) error {
	s.mu.Lock()
	node, ok := s.graph.Get(entry.Node)
	s.mu.Unlock()
	if !ok {
		// TaskDropped: stale entry, silently discard.
		return nil
	}

	if node.Sentinel {
		return s.completeTask(ctx, entry.Node)
	}

	fn, err := s.stages.Lookup(node.Stage)
	if err != nil {
		iv := newInvariantViolation(node.Pos, node.Stage, err.Error())
		s.logger.Error("invariant violation: unregistered stage", "error", iv)
		return iv
	}

	chunk, neighbors, err := s.prepareRun(ctx, node)
	if err != nil {
		return s.failTask(ctx, entry.Node, node, err)
	}

	s.metrics.SetInFlight(node.Stage, 1)
	start := time.Now()
	runErr := fn(ctx, node.Pos, chunk, neighbors)
	s.metrics.ObserveStageDuration(node.Stage, time.Since(start).Seconds())
	s.metrics.SetInFlight(node.Stage, -1)
	s.metrics.IncStageResult(node.Stage, runErr == nil)

	if runErr != nil {
		return s.failTask(ctx, entry.Node, node, runErr)
	}
	return s.completeTask(ctx, entry.Node)
}

// prepareRun resolves the chunk's own protochunk and a read-only snapshot of
// the neighbors its stage's nreq requires.
func (s *GenerationSchedule) prepareRun(ctx context.Context, node dag.Node) (*world.ProtoChunk, NeighborView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holders.Get(node.Pos)
	if !ok {
		return nil, NeighborView{}, newInvariantViolation(node.Pos, node.Stage, "holder missing for runnable task")
	}
	if h.Protochunk == nil {
		h.Protochunk = world.NewProtoChunk(node.Pos)
	}

	radius := node.Stage.Radius()
	view := NeighborView{chunks: make(map[world.ChunkPos]*world.ProtoChunk)}
	if radius > 0 {
		for _, npos := range node.Pos.Neighbors(radius) {
			if nh, ok := s.holders.Get(npos); ok && nh.Protochunk != nil {
				view.chunks[npos] = nh.Protochunk
			}
		}
	}
	return h.Protochunk, view, nil
}

// completeTask applies on_complete (SPEC_FULL.md §4.3.2).
func (s *GenerationSchedule) completeTask(ctx context.Context, key dag.NodeKey) error {
	s.mu.Lock()
	node, ok := s.graph.Get(key)
	if !ok {
		s.mu.Unlock()
		return nil
	}

	h, ok := s.holders.Get(node.Pos)
	if !ok {
		s.mu.Unlock()
		return newInvariantViolation(node.Pos, node.Stage, "holder missing on completion")
	}

	if !node.Sentinel {
		h.CurrentStage = node.Stage
		h.Tasks[node.Stage] = dag.NilNodeKey
	} else if h.Sentinel == key {
		h.Sentinel = dag.NilNodeKey
	}

	for _, r := range s.graph.DropNode(key) {
		s.admit(r)
	}

	s.trace.Record(trace.Event{Kind: trace.EventStageCompleted, Pos: node.Pos, Stage: node.Stage})
	s.fireSubs(node.Pos, h.CurrentStage)

	idle := h.Idle()
	protochunk := h.Protochunk
	stage := h.CurrentStage
	pos := h.Pos
	if idle {
		s.holders.Delete(pos)
	}
	s.metrics.SetHolders(s.holders.Len())
	s.mu.Unlock()

	if !node.Sentinel {
		if err := s.persistence.Save(ctx, pos, stage, protochunk); err != nil {
			s.logger.Warn("chunk save failed", "pos", pos.String(), "error", err)
		}
	}
	return nil
}

// failTask applies StageFailure: the protochunk is discarded, every
// remaining task for the chunk is dropped, and cross-chunk dependents are
// cancelled via the same drop_node mechanism.
func (s *GenerationSchedule) failTask(ctx context.Context, key dag.NodeKey, node dag.Node, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	se := newStageFailure(node.Pos, node.Stage, cause)
	s.logger.Error("stage failed", "pos", node.Pos.String(), "stage", node.Stage.String(), "error", se)
	s.trace.Record(trace.Event{Kind: trace.EventStageFailed, Pos: node.Pos, Stage: node.Stage, Reason: cause.Error()})

	h, ok := s.holders.Get(node.Pos)
	if ok {
		h.Protochunk = nil
		h.TargetStage = world.None
		if h.Tasks[node.Stage] == key {
			h.Tasks[node.Stage] = dag.NilNodeKey
		}
		s.lowerTarget(ctx, h, world.None)
		if h.Idle() {
			s.holders.Delete(node.Pos)
		}
		s.metrics.SetHolders(s.holders.Len())
	}
	s.dropAndAdmit(key)
	return se
}

func (s *GenerationSchedule) fireSubs(pos world.ChunkPos, reached world.Stage) {
	subs := s.subs[pos]
	if len(subs) == 0 {
		return
	}
	remaining := subs[:0]
	for _, sub := range subs {
		if reached >= sub.stage {
			sub.cb(pos, reached)
			continue
		}
		remaining = append(remaining, sub)
	}
	if len(remaining) == 0 {
		delete(s.subs, pos)
	} else {
		s.subs[pos] = remaining
	}
}

// Stats is a point-in-time snapshot for observability.
type Stats struct {
	QueueDepth int
	Holders    int
}

// Stats returns a snapshot of the schedule's current load.
func (s *GenerationSchedule) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{QueueDepth: s.queue.Len(), Holders: s.holders.Len()}
}
