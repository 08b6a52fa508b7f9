package platform

import (
	"context"
	"errors"
	"strings"

	"log/slog"

	"github.com/vladelaina/catime-monitor/internal/httpx"
	"github.com/vladelaina/catime-monitor/internal/models"
	"github.com/vladelaina/catime-monitor/internal/secret"
)

// ErrUnrecognizedPlatform is returned when a fetch is attempted for a
// config whose platform tag matched no adapter. It never reaches the
// scheduler for persisted sources; the store refuses to activate Unknown
// configs.
var ErrUnrecognizedPlatform = errors.New("platform: unrecognized platform")

// Registry holds the closed set of platform adapters. It is built once at
// startup and passed by reference; there is no hidden global table.
type Registry struct {
	adapters map[models.Platform]Adapter
}

// NewRegistry wires every supported adapter to the shared fetcher and
// secret store.
func NewRegistry(fetcher *httpx.Fetcher, secrets *secret.Store, logger *slog.Logger) *Registry {
	adapters := map[models.Platform]Adapter{}
	for _, a := range []Adapter{
		NewGitHub(fetcher, secrets, logger),
		NewBilibiliUser(fetcher, logger),
		NewBilibiliVideo(fetcher, logger),
	} {
		adapters[a.Platform()] = a
	}
	return &Registry{adapters: adapters}
}

// Resolve parses a canonical "Platform-Param1-Param2" descriptor into a
// config. The first "-" closes the platform tag, the last "-" opens the
// metric key; everything between is param1 verbatim, so param1 may itself
// contain "-". An unrecognized tag resolves to the Unknown variant rather
// than failing, so user-entered labels and tokens are not thrown away.
func (r *Registry) Resolve(descriptor string) models.MonitorConfig {
	cfg := models.MonitorConfig{
		Enabled:         true,
		Platform:        models.PlatformUnknown,
		RefreshInterval: models.DefaultRefreshInterval,
	}

	first := strings.Index(descriptor, "-")
	if first < 0 {
		cfg.Param1 = descriptor
		return cfg
	}

	tag := models.Platform(descriptor[:first])
	rest := descriptor[first+1:]
	if _, ok := r.adapters[tag]; ok {
		cfg.Platform = tag
	}

	last := strings.LastIndex(rest, "-")
	if last < 0 {
		cfg.Param1 = rest
		return cfg
	}
	cfg.Param1 = rest[:last]
	cfg.Param2 = rest[last+1:]
	return cfg
}

// OptionsFor lists the metric options a platform advertises. Unknown
// platforms advertise none.
func (r *Registry) OptionsFor(p models.Platform) []models.MetricOption {
	a, ok := r.adapters[p]
	if !ok {
		return nil
	}
	return a.Options()
}

// FetchValue dispatches one fetch through the adapter for the config's
// platform.
func (r *Registry) FetchValue(ctx context.Context, cfg models.MonitorConfig) (int64, error) {
	a, ok := r.adapters[cfg.Platform]
	if !ok {
		return 0, httpx.NewError(httpx.ClassPlatform, ErrUnrecognizedPlatform)
	}
	return a.FetchValue(ctx, cfg)
}
