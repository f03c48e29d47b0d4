package diagnostics

import (
	"log/slog"
	"time"

	"chunkscheduler/internal/schedule"
	"chunkscheduler/internal/trace"
)

// FailureSink adapts a FailureLog into a trace.Sink: every
// trace.EventStageFailed the schedule records is persisted durably, so a
// crashed process can be inspected after the fact without replaying its
// entire trace. All other event kinds are dropped — FailureLog exists for
// post-mortems, not a full audit trail (internal/trace already provides
// that, in memory).
//
// Record must be inert per the trace.Sink contract: write failures are
// logged, never panicked or returned.
type FailureSink struct {
	log    *FailureLog
	logger *slog.Logger
}

// NewFailureSink wraps log as a trace.Sink. A nil logger falls back to
// slog.Default().
func NewFailureSink(log *FailureLog, logger *slog.Logger) *FailureSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailureSink{log: log, logger: logger}
}

// Record implements trace.Sink.
func (s *FailureSink) Record(event trace.Event) {
	if event.Kind != trace.EventStageFailed {
		return
	}
	rec := FailureRecord{
		Pos:        event.Pos,
		Stage:      event.Stage,
		Kind:       schedule.StageFailure.String(),
		Message:    event.Reason,
		RecordedAt: time.Now().UTC(),
	}
	if rec.Message == "" {
		rec.Message = "stage failed"
	}
	if err := s.log.Record(rec); err != nil {
		s.logger.Warn("diagnostics: failed to persist failure record",
			"pos", event.Pos.String(), "stage", event.Stage.String(), "error", err)
	}
}
