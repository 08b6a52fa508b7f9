package store

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladelaina/catime-monitor/internal/httpx"
	"github.com/vladelaina/catime-monitor/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitors.toml")
	s, err := Load(path, testLogger())
	require.NoError(t, err)
	return s, path
}

func githubConfig(param1 string) models.MonitorConfig {
	return models.MonitorConfig{
		Enabled:  true,
		Label:    "Stars",
		Platform: models.PlatformGitHub,
		Param1:   param1,
		Param2:   "star",
	}
}

func TestAddPersistsSynchronously(t *testing.T) {
	s, path := testStore(t)
	require.NoError(t, s.Add(githubConfig("vladelaina/Catime")))

	reloaded, err := Load(path, testLogger())
	require.NoError(t, err)
	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, "GitHub-vladelaina/Catime-star", list[0].Descriptor())
	assert.Equal(t, models.DefaultRefreshInterval, list[0].RefreshInterval)
}

func TestUpdateAt(t *testing.T) {
	s, path := testStore(t)
	require.NoError(t, s.Add(githubConfig("vladelaina/Catime")))

	updated := githubConfig("torvalds/linux")
	require.NoError(t, s.UpdateAt(0, updated))

	reloaded, err := Load(path, testLogger())
	require.NoError(t, err)
	cfg, ok := reloaded.At(0)
	require.True(t, ok)
	assert.Equal(t, "torvalds/linux", cfg.Param1)

	assert.ErrorIs(t, s.UpdateAt(5, updated), ErrIndexOutOfRange)
}

func TestDeleteActiveClearsSelection(t *testing.T) {
	s, _ := testStore(t)
	require.NoError(t, s.Add(githubConfig("a/a")))
	require.NoError(t, s.Add(githubConfig("b/b")))
	require.NoError(t, s.SetActiveIndex(1))

	require.NoError(t, s.DeleteAt(1))
	assert.Equal(t, NoActive, s.ActiveIndex())
}

func TestDeleteBelowActiveShiftsSelection(t *testing.T) {
	s, _ := testStore(t)
	require.NoError(t, s.Add(githubConfig("a/a")))
	require.NoError(t, s.Add(githubConfig("b/b")))
	require.NoError(t, s.SetActiveIndex(1))

	require.NoError(t, s.DeleteAt(0))
	assert.Equal(t, 0, s.ActiveIndex())
	cfg, ok := s.ActiveConfig()
	require.True(t, ok)
	assert.Equal(t, "b/b", cfg.Param1)
}

func TestSetActiveIndexValidation(t *testing.T) {
	s, _ := testStore(t)
	require.NoError(t, s.Add(githubConfig("a/a")))

	assert.ErrorIs(t, s.SetActiveIndex(3), ErrIndexOutOfRange)
	require.NoError(t, s.SetActiveIndex(0))
	require.NoError(t, s.SetActiveIndex(NoActive))
	assert.Equal(t, NoActive, s.ActiveIndex())
}

func TestUnknownPlatformCannotBeActivated(t *testing.T) {
	s, _ := testStore(t)
	cfg := githubConfig("a/a")
	cfg.Platform = models.PlatformUnknown
	require.NoError(t, s.Add(cfg))

	err := s.SetActiveIndex(0)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestActiveIndexPersists(t *testing.T) {
	s, path := testStore(t)
	require.NoError(t, s.Add(githubConfig("a/a")))
	require.NoError(t, s.Add(githubConfig("b/b")))
	require.NoError(t, s.SetActiveIndex(1))

	reloaded, err := Load(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ActiveIndex())
}

func TestPreviewIsNeverPersisted(t *testing.T) {
	s, path := testStore(t)
	require.NoError(t, s.Add(githubConfig("a/a")))

	preview := githubConfig("preview/preview")
	s.SetPreviewConfig(&preview)

	reloaded, err := Load(path, testLogger())
	require.NoError(t, err)
	assert.Len(t, reloaded.List(), 1)
	_, ok := reloaded.PreviewConfig()
	assert.False(t, ok)
}

func TestPreviewText(t *testing.T) {
	s, _ := testStore(t)
	assert.Equal(t, "", s.PreviewText())

	preview := githubConfig("a/a")
	s.SetPreviewConfig(&preview)
	assert.Equal(t, models.LoadingText, s.PreviewText())

	s.ApplyFetchResult(preview.Descriptor(), 1234, nil)
	assert.Equal(t, "1.2k", s.PreviewText())

	s.SetPreviewConfig(nil)
	assert.Equal(t, "", s.PreviewText())
}

func TestGetDisplayText(t *testing.T) {
	s, _ := testStore(t)
	_, ok := s.GetDisplayText()
	assert.False(t, ok)

	require.NoError(t, s.Add(githubConfig("vladelaina/Catime")))
	require.NoError(t, s.SetActiveIndex(0))

	text, ok := s.GetDisplayText()
	require.True(t, ok)
	assert.Equal(t, "Stars: "+models.LoadingText, text)

	cfg, _ := s.At(0)
	s.ApplyFetchResult(cfg.Descriptor(), 1234, nil)
	text, ok = s.GetDisplayText()
	require.True(t, ok)
	assert.Equal(t, "Stars: 1.2k", text)
}

func TestApplyFetchResultError(t *testing.T) {
	s, _ := testStore(t)
	require.NoError(t, s.Add(githubConfig("a/a")))
	require.NoError(t, s.SetActiveIndex(0))
	cfg, _ := s.At(0)

	s.ApplyFetchResult(cfg.Descriptor(), 0, httpx.NewStatusError(403))

	state, ok := s.StateFor(cfg.Descriptor())
	require.True(t, ok)
	assert.Equal(t, models.FreshnessError, state.Freshness)
	assert.Equal(t, "Error 403", state.DisplayText)
	assert.Equal(t, models.RawValueNone, state.RawValue)
}

func TestApplyFetchResultDiscardsUnreferencedDescriptor(t *testing.T) {
	s, _ := testStore(t)
	preview := githubConfig("old/old")
	s.SetPreviewConfig(&preview)

	// The config changed while the fetch was in flight.
	replaced := githubConfig("new/new")
	s.SetPreviewConfig(&replaced)

	s.ApplyFetchResult(preview.Descriptor(), 999, nil)
	_, ok := s.StateFor(preview.Descriptor())
	assert.False(t, ok)
	assert.Equal(t, models.LoadingText, s.PreviewText())
}

func TestMarkLoadingKeepsLastGoodValue(t *testing.T) {
	s, _ := testStore(t)
	require.NoError(t, s.Add(githubConfig("a/a")))
	require.NoError(t, s.SetActiveIndex(0))
	cfg, _ := s.At(0)

	s.ApplyFetchResult(cfg.Descriptor(), 500, nil)
	s.MarkLoading(cfg.Descriptor())

	state, ok := s.StateFor(cfg.Descriptor())
	require.True(t, ok)
	assert.Equal(t, int64(500), state.RawValue)
	assert.Equal(t, "500", state.DisplayText)
}

func TestLabelTruncatedOnAdd(t *testing.T) {
	s, _ := testStore(t)
	cfg := githubConfig("a/a")
	cfg.Label = "this label is much longer than the thirty-one character limit"
	require.NoError(t, s.Add(cfg))

	stored, ok := s.At(0)
	require.True(t, ok)
	assert.Len(t, stored.Label, models.MaxLabelLen)
}
