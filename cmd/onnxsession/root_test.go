package main

import (
	"log/slog"
	"testing"

	"github.com/example/go-onnx-session/internal/config"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"info", "run", "providers", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config persistent flag to be registered")
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	// Should not panic on invalid level.
	setupLogger("not-a-level")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"  WARN ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLogLevel(%q) = %v, nil; want error", tt.input, got)
			}

			continue
		}

		if err != nil {
			t.Errorf("parseLogLevel(%q) unexpected error: %v", tt.input, err)
			continue
		}

		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v; want %v", tt.input, got, tt.want)
		}
	}
}

func TestSessionConfig_FlagProvidersWin(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Inference.Providers = []string{"coreml"}
	cfg.Runtime.ORTLibraryPath = "/lib/libonnxruntime.so"
	cfg.Runtime.Threads = 6
	cfg.Runtime.InterOpThreads = 2

	sc := sessionConfig(cfg, []string{"cuda"})

	if len(sc.Providers) != 1 || sc.Providers[0] != "cuda" {
		t.Errorf("Providers = %v; want [cuda]", sc.Providers)
	}

	if sc.LibraryPath != "/lib/libonnxruntime.so" {
		t.Errorf("LibraryPath = %q; want %q", sc.LibraryPath, "/lib/libonnxruntime.so")
	}

	if sc.IntraOpThreads != 6 || sc.InterOpThreads != 2 {
		t.Errorf("threads = (%d, %d); want (6, 2)", sc.IntraOpThreads, sc.InterOpThreads)
	}
}

func TestSessionConfig_FallsBackToConfigProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Inference.Providers = []string{"onednn", "cpu"}

	sc := sessionConfig(cfg, nil)

	if len(sc.Providers) != 2 || sc.Providers[0] != "onednn" {
		t.Errorf("Providers = %v; want [onednn cpu]", sc.Providers)
	}
}
