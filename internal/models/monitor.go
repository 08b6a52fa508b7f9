package models

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the upstream service a counter is fetched from.
type Platform string

const (
	PlatformGitHub        Platform = "GitHub"
	PlatformBilibiliUser  Platform = "BilibiliUser"
	PlatformBilibiliVideo Platform = "BilibiliVideo"
	PlatformUnknown       Platform = "Unknown"
)

// MaxLabelLen is the longest display label a config may carry.
const MaxLabelLen = 31

// MonitorConfig describes one live counter: where to fetch it from, which
// metric to read, and how often to refresh it.
type MonitorConfig struct {
	Enabled         bool     `toml:"enabled"`
	Label           string   `toml:"label"`
	Platform        Platform `toml:"platform"`
	Param1          string   `toml:"param1"`
	Param2          string   `toml:"param2"`
	SealedToken     string   `toml:"token"` // base64 sealed blob, "" means no token
	RefreshInterval int      `toml:"refresh"`
}

// DefaultRefreshInterval is applied when a config carries no positive
// refresh interval, in seconds.
const DefaultRefreshInterval = 300

// Descriptor returns the canonical "Platform-Param1-Param2" string. The
// triple (Platform, Param1, Param2) and the descriptor are interchangeable;
// configs are never edited in a way that lets them diverge.
func (c MonitorConfig) Descriptor() string {
	return fmt.Sprintf("%s-%s-%s", c.Platform, c.Param1, c.Param2)
}

// DisplayLabel returns the label, falling back to the descriptor when blank.
func (c MonitorConfig) DisplayLabel() string {
	if strings.TrimSpace(c.Label) == "" {
		return c.Descriptor()
	}
	return c.Label
}

// CredentialTarget is the application-namespaced vault key for this
// config's token.
func (c MonitorConfig) CredentialTarget() string {
	return "CatimeMonitor/" + c.Descriptor()
}

// Interval returns the refresh interval as a duration, substituting the
// default when the stored value is not positive.
func (c MonitorConfig) Interval() time.Duration {
	if c.RefreshInterval <= 0 {
		return DefaultRefreshInterval * time.Second
	}
	return time.Duration(c.RefreshInterval) * time.Second
}

// Freshness classifies how trustworthy a cached counter value is.
type Freshness string

const (
	FreshnessEmpty   Freshness = "empty"   // never fetched
	FreshnessLoading Freshness = "loading" // first fetch outstanding
	FreshnessFresh   Freshness = "fresh"   // fetched within its interval
	FreshnessStale   Freshness = "stale"   // last good value past expiry
	FreshnessError   Freshness = "error"   // last fetch failed
)

// RawValueNone is the RawValue sentinel for "never fetched successfully".
const RawValueNone int64 = -1

// MonitorState is the cached, renderer-facing view of one counter. It is
// derived state: created lazily on the first fetch attempt, overwritten in
// place afterwards, and never persisted.
type MonitorState struct {
	DisplayText string
	RawValue    int64
	Freshness   Freshness
	LastUpdate  time.Time
}

// MetricOption is one metric a platform can report, as shown in the
// editing UI's metric-choice control.
type MetricOption struct {
	Label string // human-facing, e.g. "Stars"
	Key   string // descriptor param2, e.g. "star"
}

// LoadingText is shown while a fetch for the displayed counter is outstanding.
const LoadingText = "…"

// FormatCompact renders a counter value the way the widget displays it:
// values under 1000 verbatim, then "1.2k" / "3.4M" with one decimal.
func FormatCompact(v int64) string {
	switch {
	case v < 0:
		return LoadingText
	case v < 1_000:
		return fmt.Sprintf("%d", v)
	case v < 1_000_000:
		return trimDecimal(fmt.Sprintf("%.1f", float64(v)/1_000)) + "k"
	default:
		return trimDecimal(fmt.Sprintf("%.1f", float64(v)/1_000_000)) + "M"
	}
}

func trimDecimal(s string) string {
	return strings.TrimSuffix(s, ".0")
}
