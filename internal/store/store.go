// Package store owns the ordered list of monitor configs, the active and
// preview selections, and the per-source cached display state. Every
// mutation persists synchronously to a TOML file before returning, so
// readers always observe the latest durable state. A single RWMutex guards
// all shared state; fetches themselves run elsewhere and only the final
// state write re-enters the lock.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/vladelaina/catime-monitor/internal/httpx"
	"github.com/vladelaina/catime-monitor/internal/models"
)

// ErrIndexOutOfRange is returned by positional operations on a bad index.
var ErrIndexOutOfRange = errors.New("store: index out of range")

// NoActive is the ActiveIndex value meaning no counter is selected.
const NoActive = -1

// staleFactor: a value older than this multiple of its refresh interval
// reads as stale. The last good text is still shown.
const staleFactor = 2

// Store is the engine's shared mutable state.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger *slog.Logger

	configs []models.MonitorConfig
	active  int
	preview *models.MonitorConfig

	// states is keyed by descriptor and holds derived display state.
	// Entries appear lazily on the first fetch attempt.
	states map[string]*models.MonitorState
}

type storeFile struct {
	Active   int                    `toml:"active"`
	Monitors []models.MonitorConfig `toml:"monitor"`
}

// Load opens the store file at path, starting empty when it does not exist
// yet.
func Load(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
		active: NoActive,
		states: map[string]*models.MonitorState{},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	var file storeFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	s.configs = file.Monitors
	for i := range s.configs {
		s.configs[i] = normalize(s.configs[i])
	}
	if file.Active >= 0 && file.Active < len(s.configs) {
		s.active = file.Active
	}
	return s, nil
}

// normalize clamps the label length and fills interval defaults so a config
// read back from disk matches what Add would have accepted.
func normalize(cfg models.MonitorConfig) models.MonitorConfig {
	if len(cfg.Label) > models.MaxLabelLen {
		cfg.Label = cfg.Label[:models.MaxLabelLen]
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = models.DefaultRefreshInterval
	}
	if cfg.Platform == "" {
		cfg.Platform = models.PlatformUnknown
	}
	return cfg
}

// save writes the persisted portion of the store. Caller holds the write
// lock.
func (s *Store) save() error {
	file := storeFile{Active: s.active, Monitors: s.configs}
	raw, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// List returns a copy of every configured monitor.
func (s *Store) List() []models.MonitorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MonitorConfig, len(s.configs))
	copy(out, s.configs)
	return out
}

// At returns the config at index i.
func (s *Store) At(i int) (models.MonitorConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.configs) {
		return models.MonitorConfig{}, false
	}
	return s.configs[i], true
}

// Add appends a config and persists.
func (s *Store) Add(cfg models.MonitorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = append(s.configs, normalize(cfg))
	return s.save()
}

// UpdateAt replaces the config at index i and persists. Updating the active
// config resets its cached state so the next fetch starts clean.
func (s *Store) UpdateAt(i int, cfg models.MonitorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.configs) {
		return ErrIndexOutOfRange
	}
	old := s.configs[i].Descriptor()
	s.configs[i] = normalize(cfg)
	if old != s.configs[i].Descriptor() {
		delete(s.states, old)
	}
	return s.save()
}

// DeleteAt removes the config at index i and persists. Deleting the active
// index clears the active selection; it does not shift to a neighbour.
// Deleting below the active index shifts the selection down so it keeps
// tracking the same config.
func (s *Store) DeleteAt(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.configs) {
		return ErrIndexOutOfRange
	}
	delete(s.states, s.configs[i].Descriptor())
	s.configs = append(s.configs[:i], s.configs[i+1:]...)
	switch {
	case s.active == i:
		s.active = NoActive
	case s.active > i:
		s.active--
	}
	return s.save()
}

// ActiveIndex returns the selected index, or NoActive.
func (s *Store) ActiveIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveIndex selects the counter the renderer shows. NoActive clears
// the selection. Unknown-platform configs cannot be activated; they exist
// only so the user's input is not lost.
func (s *Store) SetActiveIndex(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i == NoActive {
		s.active = NoActive
		return s.save()
	}
	if i < 0 || i >= len(s.configs) {
		return ErrIndexOutOfRange
	}
	if s.configs[i].Platform == models.PlatformUnknown {
		return fmt.Errorf("store: cannot activate %q: unrecognized platform", s.configs[i].Descriptor())
	}
	s.active = i
	s.markLoadingLocked(s.configs[i].Descriptor())
	return s.save()
}

// ActiveConfig returns the currently selected config, if any.
func (s *Store) ActiveConfig() (models.MonitorConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == NoActive || s.active >= len(s.configs) {
		return models.MonitorConfig{}, false
	}
	cfg := s.configs[s.active]
	if !cfg.Enabled {
		return models.MonitorConfig{}, false
	}
	return cfg, true
}

// SetPreviewConfig replaces the ephemeral preview slot. The preview is
// never a member of the persisted list and nil clears it.
func (s *Store) SetPreviewConfig(cfg *models.MonitorConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == nil {
		s.preview = nil
		return
	}
	c := normalize(*cfg)
	s.preview = &c
	s.markLoadingLocked(c.Descriptor())
}

// PreviewConfig returns a copy of the preview slot, if occupied.
func (s *Store) PreviewConfig() (models.MonitorConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.preview == nil {
		return models.MonitorConfig{}, false
	}
	return *s.preview, true
}

// PreviewText reads the display state of whichever config currently
// occupies the preview slot, returning the loading sentinel while its
// fetch is outstanding.
func (s *Store) PreviewText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.preview == nil {
		return ""
	}
	st, ok := s.states[s.preview.Descriptor()]
	if !ok || st.Freshness == models.FreshnessLoading || st.Freshness == models.FreshnessEmpty {
		return models.LoadingText
	}
	return st.DisplayText
}

// GetDisplayText is the renderer's pull-only accessor: the active counter's
// label and cached text. It never blocks on a fetch and is safe to call
// from the paint path at high frequency. The second return is false when
// nothing is active.
func (s *Store) GetDisplayText() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == NoActive || s.active >= len(s.configs) {
		return "", false
	}
	cfg := s.configs[s.active]
	if !cfg.Enabled {
		return "", false
	}
	st, ok := s.states[cfg.Descriptor()]
	if !ok || st.DisplayText == "" {
		return cfg.DisplayLabel() + ": " + models.LoadingText, true
	}
	return cfg.DisplayLabel() + ": " + st.DisplayText, true
}

// StateFor returns the cached state for a descriptor, reclassifying an
// expired value as stale.
func (s *Store) StateFor(descriptor string) (models.MonitorState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[descriptor]
	if !ok {
		return models.MonitorState{RawValue: models.RawValueNone, Freshness: models.FreshnessEmpty}, false
	}
	out := *st
	if out.Freshness == models.FreshnessFresh {
		if cfg, ok := s.configByDescriptorLocked(descriptor); ok &&
			time.Since(out.LastUpdate) > staleFactor*cfg.Interval() {
			out.Freshness = models.FreshnessStale
		}
	}
	return out, true
}

// MarkLoading flags a first fetch as outstanding. A source that already has
// a good value keeps showing it while it refreshes.
func (s *Store) MarkLoading(descriptor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLoadingLocked(descriptor)
}

func (s *Store) markLoadingLocked(descriptor string) {
	st, ok := s.states[descriptor]
	if ok && st.RawValue != models.RawValueNone {
		return
	}
	s.states[descriptor] = &models.MonitorState{
		DisplayText: models.LoadingText,
		RawValue:    models.RawValueNone,
		Freshness:   models.FreshnessLoading,
	}
}

// ApplyFetchResult writes one fetch outcome back into the cache. Results
// for descriptors no one references any more are discarded: the config
// changed while the fetch was in flight.
func (s *Store) ApplyFetchResult(descriptor string, value int64, fetchErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.referencedLocked(descriptor) {
		delete(s.states, descriptor)
		return
	}

	st, ok := s.states[descriptor]
	if !ok {
		st = &models.MonitorState{RawValue: models.RawValueNone}
		s.states[descriptor] = st
	}

	if fetchErr != nil {
		st.Freshness = models.FreshnessError
		st.DisplayText = httpx.CompactCode(fetchErr)
		return
	}
	st.RawValue = value
	st.DisplayText = models.FormatCompact(value)
	st.Freshness = models.FreshnessFresh
	st.LastUpdate = time.Now()
}

func (s *Store) referencedLocked(descriptor string) bool {
	if s.preview != nil && s.preview.Descriptor() == descriptor {
		return true
	}
	for i := range s.configs {
		if s.configs[i].Descriptor() == descriptor {
			return true
		}
	}
	return false
}

func (s *Store) configByDescriptorLocked(descriptor string) (models.MonitorConfig, bool) {
	if s.preview != nil && s.preview.Descriptor() == descriptor {
		return *s.preview, true
	}
	for i := range s.configs {
		if s.configs[i].Descriptor() == descriptor {
			return s.configs[i], true
		}
	}
	return models.MonitorConfig{}, false
}
