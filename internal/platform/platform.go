// Package platform knows how to turn a monitor config into an upstream
// HTTP request and pick the JSON field that answers the selected metric.
// One adapter per supported platform; the Registry owns the closed set and
// resolves canonical descriptor strings.
package platform

import (
	"context"

	"github.com/vladelaina/catime-monitor/internal/models"
)

// Adapter is implemented once per platform variant.
type Adapter interface {
	// Platform returns the tag this adapter serves.
	Platform() models.Platform

	// Options lists the metrics this platform can report, in the order
	// the editing UI presents them.
	Options() []models.MetricOption

	// FetchValue performs one blocking fetch of the configured metric.
	FetchValue(ctx context.Context, cfg models.MonitorConfig) (int64, error)
}
