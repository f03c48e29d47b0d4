package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the `chunkscheduler` root command with its `serve`
// and `bench` subcommands, persistent flags bound through viper (so
// CHUNKSCHEDULER_-prefixed env vars work too), matching the
// flag-then-viper.BindPFlag idiom of cmd/divinesense/main.go.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "chunkscheduler",
		Short: "Staged chunk generation scheduler for a Minecraft-compatible world.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := parseLevel(viper.GetString("log-level"))
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	viper.SetEnvPrefix("chunkscheduler")
	viper.AutomaticEnv()

	viper.SetDefault("data-dir", "./world")
	viper.SetDefault("workers", 0)
	viper.SetDefault("metrics-addr", ":9090")
	viper.SetDefault("log-level", "info")

	root.PersistentFlags().String("data-dir", viper.GetString("data-dir"), "world data directory (region files + failure log)")
	root.PersistentFlags().Int("workers", viper.GetInt("workers"), "stage worker pool size (0 selects GOMAXPROCS-1)")
	root.PersistentFlags().String("metrics-addr", viper.GetString("metrics-addr"), "address to serve /metrics on")
	root.PersistentFlags().String("log-level", viper.GetString("log-level"), `log level: "debug", "info", "warn", or "error"`)

	for _, name := range []string{"data-dir", "workers", "metrics-addr", "log-level"} {
		if err := viper.BindPFlag(name, root.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newBenchCmd())
	return root
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func baseConfig() Config {
	return Config{
		DataDir:     viper.GetString("data-dir"),
		Workers:     viper.GetInt("workers"),
		MetricsAddr: viper.GetString("metrics-addr"),
		LogLevel:    viper.GetString("log-level"),
	}
}
