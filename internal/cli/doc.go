// Package cli wires the scheduler's collaborators (persistence, stages,
// metrics, diagnostics) into two runnable commands, `serve` and `bench`.
// Grounded on cmd/divinesense/main.go for the cobra root-command /
// viper-config-binding / log/slog / signal-driven graceful shutdown idiom.
package cli
