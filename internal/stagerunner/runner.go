package stagerunner

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"chunkscheduler/internal/dag"
	"chunkscheduler/internal/schedule"
)

// idlePoll bounds how long a worker waits on an empty queue between Ready()
// wake-ups, in case a wake was sent while no worker was listening and then
// drained by a different worker that found nothing new.
const idlePoll = 50 * time.Millisecond

// Pool is a fixed-size worker pool draining a GenerationSchedule's ready
// queue. Adapted from the teacher's DAGScheduler.Run dispatch loop
// (ai/agents/orchestrator/dag_scheduler.go), generalized from a
// buffered-channel token + sync.WaitGroup to
// golang.org/x/sync/semaphore.Weighted + errgroup.Group, since this pool is
// long-lived rather than scoped to one DAG run.
type Pool struct {
	sched  *schedule.GenerationSchedule
	sem    *semaphore.Weighted
	size   int64
	logger *slog.Logger
}

// New returns a Pool of the given size. A size <= 0 defaults to
// max(1, runtime.GOMAXPROCS(0)-1) — reserve one core for the dispatch loop
// and the rest of the process.
func New(sched *schedule.GenerationSchedule, size int, logger *slog.Logger) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0) - 1
		if size < 1 {
			size = 1
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		sched:  sched,
		sem:    semaphore.NewWeighted(int64(size)),
		size:   int64(size),
		logger: logger,
	}
}

// Size reports the pool's worker capacity.
func (p *Pool) Size() int64 { return p.size }

// Run drives the pool until ctx is cancelled, or until a stage function
// returns an InvariantViolation (fail-fast, SPEC_FULL.md §7), whichever comes
// first. StageFailure and NeighborLoadFailure errors are logged and do not
// stop the pool — they are per-chunk, not process-fatal.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for {
		entry, ok := p.sched.PopReady()
		if !ok {
			select {
			case <-gctx.Done():
				return waitPool(g, ctx)
			case <-p.sched.Ready():
				continue
			case <-time.After(idlePoll):
				continue
			}
		}

		if err := p.sem.Acquire(gctx, 1); err != nil {
			return waitPool(g, ctx)
		}

		e := entry
		g.Go(func() error {
			defer p.sem.Release(1)
			return p.runOne(gctx, e)
		})
	}
}

func (p *Pool) runOne(ctx context.Context, entry dag.QueueEntry) error {
	err := p.sched.RunTask(ctx, entry)
	if err == nil {
		return nil
	}

	se, ok := err.(*schedule.ScheduleError)
	if !ok {
		p.logger.Error("stagerunner: unrecognized task error", "error", err)
		return nil
	}

	switch se.Kind {
	case schedule.InvariantViolation:
		p.logger.Error("stagerunner: invariant violation, stopping pool", "error", se)
		return se
	default:
		p.logger.Warn("stagerunner: task did not complete", "error", se)
		return nil
	}
}

func waitPool(g *errgroup.Group, ctx context.Context) error {
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
