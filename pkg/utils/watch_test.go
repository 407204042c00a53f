package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFeatureSet(t *testing.T) {
	src := map[string]bool{"a": true}
	f := NewFeatureSet(src)
	src["b"] = true

	assert.True(t, f.IsEnabled("a"))
	assert.False(t, f.IsEnabled("b"), "set copies its input")

	f.Set(map[string]bool{"b": true})
	assert.False(t, f.IsEnabled("a"))
	assert.Equal(t, map[string]bool{"b": true}, f.Snapshot())
}

func TestWatchConfig_ReloadsFeatures(t *testing.T) {
	defer goleak.VerifyNone(t)
	t.Setenv("STOREADMIN_FEATURES", "")
	os.Unsetenv("STOREADMIN_FEATURES")

	path := filepath.Join(t.TempDir(), "storeadmin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("features:\n  comments/management/m3-design: true\n"), 0o644))

	features := NewFeatureSet(map[string]bool{FeatureCommentsM3: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, nil, func(cfg Config) { features.Set(cfg.Features) })
	}()

	// the watcher may not be registered yet; keep rewriting until it sees one
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("features:\n  comments/management/m3-design: false\n"), 0o644)
		return !features.IsEnabled(FeatureCommentsM3)
	}, 5*time.Second, 300*time.Millisecond)

	// a broken file keeps the last good flags
	require.NoError(t, os.WriteFile(path, []byte("features: [nope\n"), 0o644))
	time.Sleep(3 * reloadDebounce)
	assert.False(t, features.IsEnabled(FeatureCommentsM3))

	cancel()
	require.NoError(t, <-done)
}
