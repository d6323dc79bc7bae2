package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newWatchedConfig(t *testing.T) (string, *Config) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pcss.yaml")
	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(path))
	return path, cfg
}

func TestWatcherDeliversShadowChanges(t *testing.T) {
	path, cfg := newWatchedConfig(t)

	updates := make(chan ShadowConfig, 4)
	w, err := NewWatcher(path, cfg.Shadow, func(s ShadowConfig) { updates <- s }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	cfg.Shadow.LightSize = 1.25
	cfg.Shadow.PCFSamples = 48
	require.NoError(t, cfg.Save(path))

	select {
	case got := <-updates:
		assert.Equal(t, float32(1.25), got.LightSize)
		assert.Equal(t, 48, got.PCFSamples)
		assert.Equal(t, got, w.Current())
	case <-time.After(5 * time.Second):
		t.Fatal("no shadow update delivered")
	}
}

func TestWatcherKeepsSettingsOnBadFile(t *testing.T) {
	path, cfg := newWatchedConfig(t)
	core, logs := observer.New(zapcore.WarnLevel)

	updates := make(chan ShadowConfig, 4)
	w, err := NewWatcher(path, cfg.Shadow, func(s ShadowConfig) { updates <- s },
		WithDebounce(20*time.Millisecond),
		WithWatcherLogger(zap.New(core)),
	)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("shadow:\n  pcf_samples: 1000\n"), 0644))

	require.Eventually(t, func() bool {
		return logs.FilterMessage("config reload failed, keeping previous shadow settings").Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, updates)
	assert.Equal(t, cfg.Shadow, w.Current())
}

func TestWatcherKeepsSettingsOnEmptyFile(t *testing.T) {
	path, cfg := newWatchedConfig(t)
	cfg.Shadow.LightSize = 1.25
	require.NoError(t, cfg.Save(path))
	core, logs := observer.New(zapcore.WarnLevel)

	updates := make(chan ShadowConfig, 4)
	w, err := NewWatcher(path, cfg.Shadow, func(s ShadowConfig) { updates <- s },
		WithDebounce(20*time.Millisecond),
		WithWatcherLogger(zap.New(core)),
	)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start(context.Background()))

	// a truncated file must not reset the settings to the defaults
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0644))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("config file is empty, keeping previous shadow settings").Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, updates)
	assert.Equal(t, float32(1.25), w.Current().LightSize)

	cfg.Shadow.LightSize = 2
	require.NoError(t, cfg.Save(path))
	select {
	case got := <-updates:
		assert.Equal(t, float32(2), got.LightSize)
	case <-time.After(5 * time.Second):
		t.Fatal("no shadow update delivered after the file was rewritten")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	path, cfg := newWatchedConfig(t)

	updates := make(chan ShadowConfig, 4)
	w, err := NewWatcher(path, cfg.Shadow, func(s ShadowConfig) { updates <- s }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Start(context.Background()))

	other := DefaultConfig()
	other.Shadow.LightSize = 3
	require.NoError(t, other.Save(filepath.Join(filepath.Dir(path), "other.yaml")))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, updates)
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	path, cfg := newWatchedConfig(t)
	w, err := NewWatcher(path, cfg.Shadow, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher goroutine did not exit")
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.Start(context.Background()))
}

func TestWatcherCloseWithoutStart(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "pcss.yaml"), ShadowConfig{}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}
