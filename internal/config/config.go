package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server  ServerConfig
	Monitor MonitorConfig
	Logging LoggingConfig
}

// ServerConfig holds the daemon's HTTP runtime parameters.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// MonitorConfig holds engine paths and fetch tuning.
type MonitorConfig struct {
	StorePath    string
	VaultPath    string
	FetchTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

const (
	defaultPort            = "7789"
	defaultShutdownTimeout = 5 * time.Second
	defaultFetchTimeout    = 10 * time.Second

	defaultLogFormat = "text"

	configDirName = "catime-monitor"
)

// Load reads configuration from environment variables, applying defaults
// when values are not provided or invalid.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:            getEnv("MONITOR_PORT", defaultPort),
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Monitor: MonitorConfig{
			StorePath:    os.Getenv("MONITOR_STORE_PATH"),
			VaultPath:    os.Getenv("MONITOR_VAULT_PATH"),
			FetchTimeout: defaultFetchTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
	}

	if cfg.Monitor.StorePath == "" || cfg.Monitor.VaultPath == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return Config{}, err
		}
		if cfg.Monitor.StorePath == "" {
			cfg.Monitor.StorePath = filepath.Join(dir, "monitors.toml")
		}
		if cfg.Monitor.VaultPath == "" {
			cfg.Monitor.VaultPath = filepath.Join(dir, "vault.toml")
		}
	}

	if v := os.Getenv("MONITOR_FETCH_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MONITOR_FETCH_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Monitor.FetchTimeout = d
	}

	if v := os.Getenv("MONITOR_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MONITOR_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	return cfg, nil
}

func defaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, configDirName), nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
