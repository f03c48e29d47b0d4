package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"chunkscheduler/internal/metrics"
	"chunkscheduler/internal/persistence"
	"chunkscheduler/internal/schedule"
	"chunkscheduler/internal/stagerunner"
	"chunkscheduler/internal/ticket"
	"chunkscheduler/internal/trace"
	"chunkscheduler/internal/world"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive the schedule with a synthetic square of player tickets and report throughput.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := baseConfig()
			cfg.BenchDuration, _ = cmd.Flags().GetDuration("duration")
			cfg.BenchRadius, _ = cmd.Flags().GetInt32("radius")
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runBench(cmd.Context(), cfg)
		},
	}
	cmd.Flags().Duration("duration", 10*time.Second, "how long to drive the benchmark before reporting")
	cmd.Flags().Int32("radius", 8, "square half-width, in chunks, of synthetic player tickets")
	return cmd
}

// runBench loads cfg.BenchRadius^2*4 synthetic Player tickets targeting
// world.Full, drains the schedule for cfg.BenchDuration, then prints a
// throughput summary. It exercises the exact same path serve does
// (schedule + stagerunner.Pool + persistence + metrics) with an in-memory
// persistence provider so repeated runs don't require clearing a world
// directory.
func runBench(ctx context.Context, cfg Config) error {
	logger := slog.Default()

	promSink := metrics.NewPrometheusSink(metrics.DefaultConfig())
	recorder := trace.NewRecorder()

	sched := schedule.New(schedule.Config{
		Stages:      defaultStageRegistry(),
		Persistence: persistence.NewMemoryProvider(),
		Trace:       recorder,
		Metrics:     promSink,
		Logger:      logger,
	})

	pool := stagerunner.New(sched, cfg.Workers, logger)

	runCtx, cancel := context.WithTimeout(ctx, cfg.BenchDuration)
	defer cancel()

	var reached int64
	for x := -cfg.BenchRadius; x < cfg.BenchRadius; x++ {
		for z := -cfg.BenchRadius; z < cfg.BenchRadius; z++ {
			pos := world.ChunkPos{X: x, Z: z}
			sched.OnChunkReady(pos, world.Full, func(world.ChunkPos, world.Stage) {
				reached++
			})
			sched.AddTicket(runCtx, ticket.Ticket{
				Kind:     ticket.Player,
				Pos:      pos,
				Stage:    world.Full,
				Priority: 10,
			})
		}
	}

	start := time.Now()
	runErr := pool.Run(runCtx)
	elapsed := time.Since(start)

	total := int(4 * cfg.BenchRadius * cfg.BenchRadius)
	stats := sched.Stats()
	logger.Info("chunkscheduler: bench complete",
		"chunks_requested", total,
		"chunks_reached_full", reached,
		"elapsed", elapsed,
		"queue_depth_at_end", stats.QueueDepth,
		"holders_at_end", stats.Holders,
	)

	if runErr != nil && !errors.Is(runErr, context.DeadlineExceeded) && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
