package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-onnx-session/internal/config"
	"github.com/example/go-onnx-session/internal/session"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "onnxsession",
		Short: "Load ONNX models and run inference sessions",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newProvidersCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := parseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func parseLogLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", levelStr)
	}
}

// sessionConfig translates the loaded configuration into session knobs.
func sessionConfig(cfg config.Config, providers []string) session.Config {
	requested := providers
	if len(requested) == 0 {
		requested = cfg.Inference.Providers
	}
	return session.Config{
		Providers:      requested,
		LibraryPath:    cfg.Runtime.ORTLibraryPath,
		APIVersion:     cfg.Runtime.APIVersion,
		IntraOpThreads: cfg.Runtime.Threads,
		InterOpThreads: cfg.Runtime.InterOpThreads,
	}
}
