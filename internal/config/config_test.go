package config

import (
	"path/filepath"
	"testing"
	"time"

	"log/slog"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MONITOR_PORT",
		"MONITOR_STORE_PATH",
		"MONITOR_VAULT_PATH",
		"MONITOR_FETCH_TIMEOUT_SECONDS",
		"MONITOR_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != defaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout %v, got %v", defaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	}
	if cfg.Monitor.FetchTimeout != defaultFetchTimeout {
		t.Errorf("expected default fetch timeout %v, got %v", defaultFetchTimeout, cfg.Monitor.FetchTimeout)
	}
	if cfg.Monitor.StorePath == "" {
		t.Error("expected a default store path")
	}
	if filepath.Base(cfg.Monitor.StorePath) != "monitors.toml" {
		t.Errorf("unexpected default store file: %q", cfg.Monitor.StorePath)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"MONITOR_PORT":                     "9090",
		"MONITOR_STORE_PATH":               "/tmp/monitors.toml",
		"MONITOR_VAULT_PATH":               "/tmp/vault.toml",
		"MONITOR_FETCH_TIMEOUT_SECONDS":    "30",
		"MONITOR_SHUTDOWN_TIMEOUT_SECONDS": "15",
		"LOG_LEVEL":                        "debug",
		"LOG_FORMAT":                       "json",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != overrides["MONITOR_PORT"] {
		t.Errorf("expected overridden port %q, got %q", overrides["MONITOR_PORT"], cfg.Server.Port)
	}
	if cfg.Monitor.StorePath != overrides["MONITOR_STORE_PATH"] {
		t.Errorf("expected overridden store path %q, got %q", overrides["MONITOR_STORE_PATH"], cfg.Monitor.StorePath)
	}
	if cfg.Monitor.VaultPath != overrides["MONITOR_VAULT_PATH"] {
		t.Errorf("expected overridden vault path %q, got %q", overrides["MONITOR_VAULT_PATH"], cfg.Monitor.VaultPath)
	}
	if cfg.Monitor.FetchTimeout != 30*time.Second {
		t.Errorf("expected fetch timeout %v, got %v", 30*time.Second, cfg.Monitor.FetchTimeout)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected shutdown timeout %v, got %v", 15*time.Second, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level %v, got %v", slog.LevelDebug, cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format %q, got %q", "json", cfg.Logging.Format)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"MONITOR_FETCH_TIMEOUT_SECONDS":    "-1",
		"MONITOR_SHUTDOWN_TIMEOUT_SECONDS": "abc",
		"LOG_LEVEL":                        "verbose",
		"LOG_FORMAT":                       "xml",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for raw, want := range tests {
		got, err := parseLogLevel(raw)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
