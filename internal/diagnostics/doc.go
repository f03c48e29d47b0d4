// Package diagnostics durably records stage failures for post-mortem
// inspection: which chunk, which stage, which SPEC_FULL.md §7 error kind, and
// why. Adapted from the teacher's internal/recovery/state package — same
// schema-with-Validate() value types and atomic-write-plus-fsync Store idiom
// — generalized from a build run's (Run, Checkpoint, Failure) triple to a
// single FailureRecord keyed by (chunk position, stage), since the scheduler
// has no run-lifecycle or checkpoint-replay concept: a chunk always resumes
// from its own persisted stage (internal/persistence), never from a recorded
// checkpoint.
package diagnostics
