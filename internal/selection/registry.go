package selection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	synchub "storeadmin/internal/sync"
)

const defaultSessionTTL = 30 * time.Minute

type Options struct {
	TTL      time.Duration
	Currency string
	Fetcher  VariationSource
	Pub      Broadcaster
	Logger   *zap.Logger
	Now      func() time.Time
}

// Registry owns the live searches, keyed by id.
type Registry struct {
	mu       sync.RWMutex
	searches map[string]*Search
	opts     Options
}

func NewRegistry(opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Logger = opts.Logger.Named("selection")
	return &Registry{searches: make(map[string]*Search), opts: opts}
}

func (r *Registry) Create(siteID int64, singular bool, value []int64) *Search {
	s := &Search{
		ID:       uuid.NewString(),
		SiteID:   siteID,
		Singular: singular,
		chosen:   NewChosenIDs(singular, value...),
		rows:     make(map[int64]*row),
		currency: r.opts.Currency,
		fetcher:  r.opts.Fetcher,
		pub:      r.opts.Pub,
		logger:   r.opts.Logger,
		now:      r.opts.Now,
	}
	s.touched = s.now()

	r.mu.Lock()
	r.searches[s.ID] = s
	r.mu.Unlock()

	r.opts.Logger.Debug("search created", zap.String("search", s.ID), zap.Int64("site", siteID))
	return s
}

func (r *Registry) Get(id string) (*Search, error) {
	r.mu.RLock()
	s, ok := r.searches[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSearchNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.searches[id]
	delete(r.searches, id)
	r.mu.Unlock()

	if ok {
		s.publish(synchub.SelectionEvent{Type: synchub.EventSearchClosed})
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.searches)
}

// Reap drops searches idle for longer than the TTL and returns how many went.
// Feed subscribers see search.closed for each, same as Delete.
func (r *Registry) Reap() int {
	cutoff := r.opts.Now().Add(-r.opts.TTL)

	r.mu.Lock()
	var expired []*Search
	for id, s := range r.searches {
		if s.lastTouched().Before(cutoff) {
			expired = append(expired, s)
			delete(r.searches, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.publish(synchub.SelectionEvent{Type: synchub.EventSearchClosed})
	}
	if len(expired) > 0 {
		r.opts.Logger.Info("reaped idle searches", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run reaps idle searches every half TTL until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(r.opts.TTL / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Reap()
		}
	}
}
