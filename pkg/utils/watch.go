package utils

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FeatureSet is the live view of the feature flags; WatchConfig swaps it on
// config file changes.
type FeatureSet struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewFeatureSet(flags map[string]bool) *FeatureSet {
	f := &FeatureSet{}
	f.Set(flags)
	return f
}

func (f *FeatureSet) IsEnabled(feature string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[feature]
}

func (f *FeatureSet) Set(flags map[string]bool) {
	cp := make(map[string]bool, len(flags))
	for k, v := range flags {
		cp[k] = v
	}
	f.mu.Lock()
	f.flags = cp
	f.mu.Unlock()
}

func (f *FeatureSet) Snapshot() map[string]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cp := make(map[string]bool, len(f.flags))
	for k, v := range f.flags {
		cp[k] = v
	}
	return cp
}

const reloadDebounce = 200 * time.Millisecond

// WatchConfig reloads the config file at path whenever it changes and passes
// the result to apply. Bad files are logged and skipped. It blocks until ctx
// is done.
func WatchConfig(ctx context.Context, path string, logger *zap.Logger, apply func(Config)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("config")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	path = filepath.Clean(path)
	// watch the directory: editors replace files by rename
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	logger.Info("watching config", zap.String("path", path))

	debounce := time.NewTimer(reloadDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(reloadDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-debounce.C:
			cfg, err := LoadConfig(path)
			if err != nil {
				logger.Warn("reload failed, keeping previous config", zap.Error(err))
				continue
			}
			logger.Info("config reloaded")
			apply(cfg)
		}
	}
}
