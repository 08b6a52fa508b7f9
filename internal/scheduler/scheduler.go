// Package scheduler drives the periodic refresh of the active counter and
// the fast preview loop used while a configuration is being edited. One
// long-lived ticker decides what is due; every actual fetch runs on its own
// goroutine so no caller is ever blocked on the network.
package scheduler

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/vladelaina/catime-monitor/internal/httpx"
	"github.com/vladelaina/catime-monitor/internal/metrics"
	"github.com/vladelaina/catime-monitor/internal/models"
	"github.com/vladelaina/catime-monitor/internal/store"
)

// ValueFetcher resolves one config to its current counter value. The
// platform registry is the production implementation.
type ValueFetcher interface {
	FetchValue(ctx context.Context, cfg models.MonitorConfig) (int64, error)
}

const (
	// dispatchInterval is how often the main loop checks whether the
	// active source is due.
	dispatchInterval = 1 * time.Second
	// previewInterval is the fixed cadence of the preview loop.
	previewInterval = 500 * time.Millisecond
)

// RefreshScheduler owns the fetch lifecycle for every tracked source.
type RefreshScheduler struct {
	store     *store.Store
	registry  ValueFetcher
	collector *metrics.FetchCollector
	logger    *slog.Logger
	stopChan  chan struct{}

	mu            sync.Mutex
	baseCtx       context.Context
	inFlight      map[string]bool
	lastFetch     map[string]time.Time
	previewCancel context.CancelFunc
}

// New creates a scheduler bound to the shared store and adapter registry.
func New(st *store.Store, registry ValueFetcher, collector *metrics.FetchCollector, logger *slog.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		store:     st,
		registry:  registry,
		collector: collector,
		logger:    logger,
		stopChan:  make(chan struct{}),
		baseCtx:   context.Background(),
		inFlight:  map[string]bool{},
		lastFetch: map[string]time.Time{},
	}
}

// Start runs the main dispatch loop until Stop or context cancellation.
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.logger.Info("starting refresh scheduler", "dispatch_interval", dispatchInterval)
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	// Run once immediately on start
	s.DispatchActive()

	for {
		select {
		case <-ticker.C:
			s.DispatchActive()
		case <-s.stopChan:
			s.logger.Info("refresh scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler and cancels any preview loop.
func (s *RefreshScheduler) Stop() {
	s.SetPreview(nil)
	close(s.stopChan)
}

// DispatchActive fetches the active source when its interval has elapsed.
// It returns true when a fetch was actually dispatched; a tick that lands
// while the same descriptor is still in flight is dropped, not queued.
func (s *RefreshScheduler) DispatchActive() bool {
	cfg, ok := s.store.ActiveConfig()
	if !ok {
		return false
	}
	return s.maybeDispatch(cfg, cfg.Interval())
}

// DispatchPreview fetches the preview source at the fast preview cadence.
func (s *RefreshScheduler) DispatchPreview() bool {
	cfg, ok := s.store.PreviewConfig()
	if !ok {
		return false
	}
	return s.maybeDispatch(cfg, previewInterval)
}

// SetPreview replaces the ephemeral preview config and manages the preview
// loop: set it to start previewing, nil to cancel when the editing UI
// closes. Edits while a fetch is outstanding do not cancel that fetch; its
// result is discarded by descriptor comparison when it lands.
func (s *RefreshScheduler) SetPreview(cfg *models.MonitorConfig) {
	s.store.SetPreviewConfig(cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == nil {
		if s.previewCancel != nil {
			s.previewCancel()
			s.previewCancel = nil
		}
		return
	}
	if s.previewCancel == nil {
		ctx, cancel := context.WithCancel(s.baseCtx)
		s.previewCancel = cancel
		go s.previewLoop(ctx)
	}
}

func (s *RefreshScheduler) previewLoop(ctx context.Context) {
	s.logger.Debug("preview loop started", "interval", previewInterval)
	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()

	s.DispatchPreview()
	for {
		select {
		case <-ticker.C:
			if _, ok := s.store.PreviewConfig(); !ok {
				s.logger.Debug("preview loop stopped: preview cleared")
				return
			}
			s.DispatchPreview()
		case <-ctx.Done():
			s.logger.Debug("preview loop stopped")
			return
		}
	}
}

// maybeDispatch enforces the two scheduling invariants: at most one fetch
// in flight per descriptor, and no refetch before minInterval has passed
// since the last completion.
func (s *RefreshScheduler) maybeDispatch(cfg models.MonitorConfig, minInterval time.Duration) bool {
	descriptor := cfg.Descriptor()

	s.mu.Lock()
	if s.inFlight[descriptor] {
		s.mu.Unlock()
		return false
	}
	if last, ok := s.lastFetch[descriptor]; ok && time.Since(last) < minInterval {
		s.mu.Unlock()
		return false
	}
	s.inFlight[descriptor] = true
	ctx := s.baseCtx
	s.mu.Unlock()

	s.store.MarkLoading(descriptor)
	go s.fetch(ctx, cfg, descriptor)
	return true
}

func (s *RefreshScheduler) fetch(ctx context.Context, cfg models.MonitorConfig, descriptor string) {
	fetchID := uuid.NewString()
	s.collector.FetchStarted()
	s.logger.Debug("fetch dispatched", "fetch_id", fetchID, "descriptor", descriptor)

	start := time.Now()
	value, err := s.registry.FetchValue(ctx, cfg)
	duration := time.Since(start)
	s.collector.FetchFinished(string(cfg.Platform), duration, err)

	if err != nil {
		s.logger.Warn("fetch failed",
			"fetch_id", fetchID,
			"descriptor", descriptor,
			"code", httpx.CompactCode(err),
			"duration", duration,
			"error", err)
	} else {
		s.logger.Debug("fetch succeeded",
			"fetch_id", fetchID,
			"descriptor", descriptor,
			"value", value,
			"duration", duration)
	}

	// State write first, then clear the in-flight marker.
	s.store.ApplyFetchResult(descriptor, value, err)

	s.mu.Lock()
	s.lastFetch[descriptor] = time.Now()
	delete(s.inFlight, descriptor)
	s.mu.Unlock()
}
