package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chunkscheduler/internal/diagnostics"
	"chunkscheduler/internal/metrics"
	"chunkscheduler/internal/persistence"
	"chunkscheduler/internal/schedule"
	"chunkscheduler/internal/stagerunner"
	"chunkscheduler/internal/trace"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the generation schedule against a world directory until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := baseConfig()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

// runServe builds a schedule and drains it until ctx is cancelled. It does
// not add any tickets itself: the player/command front end that calls
// AddTicket is a network-protocol collaborator, explicitly out of scope
// (SPEC_FULL.md §1). Without one, the pool idles — ticks TTLs, serves
// metrics, and waits for SIGINT/SIGTERM.
func runServe(ctx context.Context, cfg Config) error {
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persist := persistence.NewFileProvider(cfg.DataDir)

	failureLog, err := diagnostics.NewFailureLog(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("build failure log: %w", err)
	}
	recorder := trace.NewRecorder()
	fanout := trace.MultiSink{recorder, diagnostics.NewFailureSink(failureLog, logger)}

	promSink := metrics.NewPrometheusSink(metrics.DefaultConfig())

	sched := schedule.New(schedule.Config{
		Stages:      defaultStageRegistry(),
		Persistence: persist,
		Trace:       fanout,
		Metrics:     promSink,
		Logger:      logger,
	})

	pool := stagerunner.New(sched, cfg.Workers, logger)
	logger.Info("chunkscheduler: starting", "data_dir", cfg.DataDir, "workers", pool.Size(), "metrics_addr", cfg.MetricsAddr)

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: promSink.Handler()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("chunkscheduler: metrics server failed", "error", err)
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				sched.Tick(ctx, now)
			}
		}
	}()

	runErr := pool.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("chunkscheduler: metrics server shutdown error", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
