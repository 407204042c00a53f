package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storeadmin/pkg/models"
)

// VariationLister is the data source behind the fetcher.
type VariationLister interface {
	ListVariations(ctx context.Context, siteID, productID int64) ([]models.Variation, error)
}

type cacheEntry struct {
	variations []models.Variation
	at         time.Time
}

// Fetcher loads variation collections per (site, product). Concurrent
// requests for the same key share one load; results are cached for TTL.
type Fetcher struct {
	src     VariationLister
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]cacheEntry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFetcher(src VariationLister, ttl time.Duration, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Fetcher{
		src:     src,
		ttl:     ttl,
		timeout: 10 * time.Second,
		logger:  logger.Named("fetcher"),
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func key(siteID, productID int64) string {
	return fmt.Sprintf("%d:%d", siteID, productID)
}

func (f *Fetcher) cached(k string) ([]models.Variation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[k]
	if !ok || (f.ttl > 0 && f.now().Sub(e.at) > f.ttl) {
		return nil, false
	}
	return e.variations, true
}

// Fetch returns the variations for a product, loading them if needed.
func (f *Fetcher) Fetch(ctx context.Context, siteID, productID int64) ([]models.Variation, error) {
	k := key(siteID, productID)
	if vs, ok := f.cached(k); ok {
		return vs, nil
	}

	ch := f.group.DoChan(k, func() (any, error) {
		// a caller that missed the cache may join after the previous load finished
		if vs, ok := f.cached(k); ok {
			return vs, nil
		}
		loadCtx, cancel := context.WithTimeout(f.ctx, f.timeout)
		defer cancel()

		vs, err := f.src.ListVariations(loadCtx, siteID, productID)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cache[k] = cacheEntry{variations: vs, at: f.now()}
		f.mu.Unlock()
		f.logger.Debug("variations loaded",
			zap.Int64("site", siteID), zap.Int64("product", productID), zap.Int("count", len(vs)))
		return vs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("fetch variations %s: %w", k, res.Err)
		}
		return res.Val.([]models.Variation), nil
	}
}

// FetchAsync loads in the background and hands the result to fn. fn runs on
// a fetcher goroutine.
func (f *Fetcher) FetchAsync(siteID, productID int64, fn func([]models.Variation, error)) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		vs, err := f.Fetch(f.ctx, siteID, productID)
		fn(vs, err)
	}()
}

// Invalidate drops the cached collection for a product.
func (f *Fetcher) Invalidate(siteID, productID int64) {
	f.mu.Lock()
	delete(f.cache, key(siteID, productID))
	f.mu.Unlock()
}

// Close cancels in-flight loads and waits for async callbacks to finish.
func (f *Fetcher) Close() {
	f.cancel()
	f.wg.Wait()
}
