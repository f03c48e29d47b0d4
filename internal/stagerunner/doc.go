// Package stagerunner is the fixed-size worker pool that drains
// GenerationSchedule's ready queue and executes stage functions outside its
// lock (SPEC_FULL.md §5). Adapted from the teacher's DAGScheduler.Run
// (ai/agents/orchestrator/dag_scheduler.go): a dispatch loop feeding a
// semaphore-gated pool of goroutines, generalized from a hand-rolled
// buffered-channel token to golang.org/x/sync/semaphore.Weighted, and from a
// sync.WaitGroup to errgroup.Group for error propagation, since the pool here
// is long-lived rather than scoped to one DAG run.
package stagerunner
