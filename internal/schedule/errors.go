package schedule

import (
	"fmt"

	"github.com/pkg/errors"

	"chunkscheduler/internal/world"
)

// ErrorKind is one of the four error kinds of SPEC_FULL.md §7.
type ErrorKind int

const (
	// TaskDropped: a worker popped a stale ReadyQueue entry. Silently discard.
	TaskDropped ErrorKind = iota
	// StageFailure: generation code returned an error. Propagate as
	// per-chunk cancellation.
	StageFailure
	// NeighborLoadFailure: persistence rejected a load. Treated as if the
	// neighbor were at stage None.
	NeighborLoadFailure
	// InvariantViolation: a detected inconsistency. Fail-fast.
	InvariantViolation
)

func (k ErrorKind) String() string {
	switch k {
	case TaskDropped:
		return "TaskDropped"
	case StageFailure:
		return "StageFailure"
	case NeighborLoadFailure:
		return "NeighborLoadFailure"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// ScheduleError is the structured error type carrying one of the above
// kinds plus a wrapped cause, following the teacher's
// *dag.GraphError{Kind, Msg} / errors.Unwrap shape.
type ScheduleError struct {
	Kind  ErrorKind
	Pos   world.ChunkPos
	Stage world.Stage
	cause error
}

func (e *ScheduleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s at %s/%s: %v", e.Kind, e.Pos, e.Stage, e.cause)
}

func (e *ScheduleError) Unwrap() error { return e.cause }

func newStageFailure(pos world.ChunkPos, stage world.Stage, cause error) *ScheduleError {
	return &ScheduleError{Kind: StageFailure, Pos: pos, Stage: stage, cause: cause}
}

func newNeighborLoadFailure(pos world.ChunkPos, cause error) *ScheduleError {
	return &ScheduleError{Kind: NeighborLoadFailure, Pos: pos, Stage: world.None, cause: cause}
}

// newInvariantViolation attaches a stack trace to cause via pkg/errors —
// the one place in the scheduler that does, since this is the fatal
// diagnostic boundary (SPEC_FULL.md §7).
func newInvariantViolation(pos world.ChunkPos, stage world.Stage, msg string) *ScheduleError {
	return &ScheduleError{Kind: InvariantViolation, Pos: pos, Stage: stage, cause: errors.New(msg)}
}
