package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	synchub "storeadmin/internal/sync"
	"storeadmin/pkg/models"
)

var (
	ErrSearchNotFound  = errors.New("search not found")
	ErrRowNotFound     = errors.New("row not found")
	ErrProductNotFound = errors.New("product not found")
	ErrNotSelectable   = errors.New("id is not selectable in this row")
)

// VariationSource delivers a product's variations asynchronously.
type VariationSource interface {
	FetchAsync(siteID, productID int64, fn func([]models.Variation, error))
}

// ProductSource looks up catalog products; (nil, nil) means not found.
type ProductSource interface {
	GetProduct(ctx context.Context, siteID, productID int64) (*models.Product, error)
}

type Broadcaster interface {
	BroadcastJSON(v any)
}

type row struct {
	engine *Engine
	loaded bool
	gen    int
}

// Search is one product-search widget: the host holding chosen ids and a row
// per product. All mutation goes through mu.
type Search struct {
	ID       string
	SiteID   int64
	Singular bool

	mu       sync.Mutex
	chosen   ChosenIDs
	rows     map[int64]*row
	order    []int64
	pending  []Event
	touched  time.Time
	currency string

	fetcher VariationSource
	pub     Broadcaster
	logger  *zap.Logger
	now     func() time.Time
}

type SearchView struct {
	ID       string    `json:"id"`
	SiteID   int64     `json:"site_id"`
	Singular bool      `json:"singular"`
	Value    ChosenIDs `json:"value"`
	Rows     []RowView `json:"rows"`
}

type RowResult struct {
	Events []Event   `json:"events"`
	Value  ChosenIDs `json:"value"`
	Row    RowView   `json:"row"`
}

func (s *Search) Chosen() ChosenIDs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewChosenIDs(s.chosen.Singular, s.chosen.Values()...)
}

func (s *Search) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Search) opts() RenderOptions {
	return RenderOptions{Singular: s.Singular, Currency: s.currency}
}

func (s *Search) renderLocked(r *row) RowView {
	e := r.engine
	return RenderRow(e.product, e.variations, e.state, &s.chosen, s.opts())
}

// emit is the engine callback. It runs with mu held: the event is applied to
// the chosen ids right away and queued for publishing after unlock.
func (s *Search) emit(ev Event) {
	s.chosen.Apply(ev)
	s.pending = append(s.pending, ev)
}

func (s *Search) takePendingLocked() []Event {
	evs := s.pending
	s.pending = nil
	return evs
}

// AddRow adds a row for p, or refreshes the product snapshot of an existing
// row. Variable products get their variations fetched in the background.
func (s *Search) AddRow(p models.Product) RowView {
	s.mu.Lock()
	s.touched = s.now()
	r, ok := s.rows[p.ID]
	if !ok {
		r = &row{engine: NewEngine(p, &s.chosen, s.emit)}
		r.engine.OnUnresolved = s.logUnresolved
		s.rows[p.ID] = r
		s.order = append(s.order, p.ID)
	} else {
		r.engine.SetProduct(p)
	}

	fetch := p.IsVariable()
	if fetch {
		r.gen++
		r.loaded = false
	}
	gen := r.gen
	view := s.renderLocked(r)
	s.mu.Unlock()

	if fetch && s.fetcher != nil {
		s.fetcher.FetchAsync(s.SiteID, p.ID, func(vs []models.Variation, err error) {
			s.installVariations(p.ID, gen, vs, err)
		})
	}
	return view
}

func (s *Search) installVariations(productID int64, gen int, vs []models.Variation, err error) {
	if err != nil {
		s.logger.Warn("fetch variations",
			zap.String("search", s.ID), zap.Int64("product", productID), zap.Error(err))
		return
	}

	s.mu.Lock()
	r, ok := s.rows[productID]
	if !ok || r.gen != gen {
		s.mu.Unlock()
		return
	}
	r.engine.SetVariations(vs)
	r.loaded = true
	s.mu.Unlock()

	s.publish(synchub.SelectionEvent{Type: synchub.EventRowUpdated, ProductID: productID})
}

// VariationsLoaded reports whether the row's variation snapshot has arrived.
func (s *Search) VariationsLoaded(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[productID]
	return ok && r.loaded
}

func (s *Search) Row(productID int64) (RowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[productID]
	if !ok {
		return RowView{}, ErrRowNotFound
	}
	return s.renderLocked(r), nil
}

func (s *Search) View() SearchView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := SearchView{
		ID:       s.ID,
		SiteID:   s.SiteID,
		Singular: s.Singular,
		Value:    NewChosenIDs(s.chosen.Singular, s.chosen.Values()...),
		Rows:     make([]RowView, 0, len(s.order)),
	}
	for _, id := range s.order {
		v.Rows = append(v.Rows, s.renderLocked(s.rows[id]))
	}
	return v
}

// mutate runs fn against a row's engine under the lock, then publishes the
// events the engine emitted. An error from fn leaves the search untouched.
func (s *Search) mutate(productID int64, fn func(e *Engine) error) (RowResult, error) {
	s.mu.Lock()
	r, ok := s.rows[productID]
	if !ok {
		s.mu.Unlock()
		return RowResult{}, ErrRowNotFound
	}
	if err := fn(r.engine); err != nil {
		s.mu.Unlock()
		return RowResult{}, err
	}
	s.touched = s.now()
	res := RowResult{
		Events: s.takePendingLocked(),
		Value:  NewChosenIDs(s.chosen.Singular, s.chosen.Values()...),
		Row:    s.renderLocked(r),
	}
	s.mu.Unlock()

	if res.Events == nil {
		res.Events = []Event{}
	}
	for _, ev := range res.Events {
		s.publish(synchub.SelectionEvent{
			Type:      synchub.EventSelectionChanged,
			ProductID: productID,
			ID:        ev.ID,
			Kind:      string(ev.Kind),
			Value:     res.Value,
		})
	}
	return res, nil
}

func (s *Search) Resolve(productID int64, choices map[string]string) (RowResult, error) {
	return s.mutate(productID, func(e *Engine) error {
		e.ResolveAttributeChoice(choices)
		return nil
	})
}

// Change toggles id on the row. A simple product accepts only its own id; a
// variable product accepts only one of its resolved variations.
func (s *Search) Change(productID, id int64) (RowResult, error) {
	return s.mutate(productID, func(e *Engine) error {
		if !selectable(e, id) {
			return fmt.Errorf("change %d on product %d: %w", id, productID, ErrNotSelectable)
		}
		e.Change(id)
		return nil
	})
}

func selectable(e *Engine, id int64) bool {
	p := e.Product()
	if !p.IsVariable() {
		return id == p.ID
	}
	return e.state.indexOf(id) >= 0
}

func (s *Search) ToggleForm(productID int64) (RowResult, error) {
	return s.mutate(productID, func(e *Engine) error {
		e.ToggleCustomizationForm()
		return nil
	})
}

func (s *Search) publish(ev synchub.SelectionEvent) {
	if s.pub == nil {
		return
	}
	ev.SearchID = s.ID
	ev.At = s.now().UTC()
	s.pub.BroadcastJSON(ev)
}

func (s *Search) logUnresolved(u Unresolved) {
	s.logger.Debug("attribute choice did not resolve to one variation",
		zap.String("search", s.ID),
		zap.Int64("product", u.ProductID),
		zap.Any("choices", u.Choices),
		zap.Int("matches", u.Matches))
}
