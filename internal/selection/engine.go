// Package selection implements the product-search row: variation matching,
// per-row selection state, the row view model and the search sessions that
// own them.
package selection

import (
	"slices"

	"storeadmin/pkg/models"
)

type EventKind string

const (
	// EventSelect is emitted for the product and its resolved variations
	// after an attribute choice matched exactly one variation.
	EventSelect EventKind = "select"
	// EventToggle is emitted when a row's own control changes.
	EventToggle EventKind = "toggle"
)

// Event is one selection-changed notification for a product or variation id.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   int64     `json:"id"`
}

// ChosenReader answers whether an id is currently chosen by the host.
type ChosenReader interface {
	Contains(id int64) bool
}

// State is the selection state owned by one row.
type State struct {
	FormOpen bool
	// Resolved is unique by ID and kept in insertion order.
	Resolved []models.Variation
}

func (s State) clone() State {
	s.Resolved = slices.Clone(s.Resolved)
	return s
}

func (s State) indexOf(id int64) int {
	return slices.IndexFunc(s.Resolved, func(v models.Variation) bool { return v.ID == id })
}

// Unresolved describes a fully specified attribute choice that did not match
// exactly one variation.
type Unresolved struct {
	ProductID int64
	Choices   map[string]string
	Matches   int
}

// Engine resolves attribute choices for a single product row. It is not safe
// for concurrent use; the owning Search serializes calls.
type Engine struct {
	product    models.Product
	variations []models.Variation
	state      State
	chosen     ChosenReader
	emit       func(Event)

	// OnUnresolved, when set, is called for choices that matched zero or
	// several variations. State is unchanged and nothing is emitted.
	OnUnresolved func(Unresolved)
}

func NewEngine(product models.Product, chosen ChosenReader, emit func(Event)) *Engine {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Engine{product: product, chosen: chosen, emit: emit}
}

func (e *Engine) Product() models.Product { return e.product }

// SetProduct swaps the product snapshot. Variations are dropped when the
// product id changes; resolved state is kept only for the same product.
func (e *Engine) SetProduct(p models.Product) {
	if p.ID != e.product.ID || p.SiteID != e.product.SiteID {
		e.variations = nil
		e.state = State{}
	}
	e.product = p
}

// SetVariations installs the fetched variation snapshot. It does not re-run
// any earlier resolution.
func (e *Engine) SetVariations(vs []models.Variation) {
	e.variations = slices.Clone(vs)
}

func (e *Engine) Variations() []models.Variation { return e.variations }

func (e *Engine) State() State { return e.state.clone() }

// ResolveAttributeChoice finds the single variation whose attributes equal
// choices and records it. Choices containing the "any" option, or matching
// zero or several variations, leave the state untouched.
func (e *Engine) ResolveAttributeChoice(choices map[string]string) {
	for _, opt := range choices {
		if opt == models.AnyOption {
			return
		}
	}

	var matches []models.Variation
	for _, v := range e.variations {
		if matchesChoices(v, choices) {
			matches = append(matches, v)
		}
	}

	if len(matches) != 1 {
		if e.OnUnresolved != nil {
			e.OnUnresolved(Unresolved{ProductID: e.product.ID, Choices: choices, Matches: len(matches)})
		}
		return
	}

	if e.state.indexOf(matches[0].ID) < 0 {
		e.state.Resolved = append(e.state.Resolved, matches[0])
	}

	e.emit(Event{Kind: EventSelect, ID: e.product.ID})
	for _, v := range e.state.Resolved {
		e.emit(Event{Kind: EventSelect, ID: v.ID})
	}
}

// every binding of the variation must equal the chosen option; a variation
// without attributes matches anything.
func matchesChoices(v models.Variation, choices map[string]string) bool {
	for _, a := range v.Attributes {
		if choices[a.Name] != a.Option {
			return false
		}
	}
	return true
}

// DeselectVariant drops the resolved variation with the given id.
// It reports whether anything was removed.
func (e *Engine) DeselectVariant(id int64) bool {
	i := e.state.indexOf(id)
	if i < 0 {
		return false
	}
	e.state.Resolved = slices.Delete(e.state.Resolved, i, i+1)
	return true
}

// Change handles the row's own radio/checkbox: the variation (if resolved)
// is dropped, then the id is toggled on the host.
func (e *Engine) Change(id int64) {
	e.DeselectVariant(id)
	e.emit(Event{Kind: EventToggle, ID: id})
}

// ToggleCustomizationForm opens a closed form and closes an open one unless
// something in the row is still selected. It returns the new open state.
func (e *Engine) ToggleCustomizationForm() bool {
	if !e.state.FormOpen {
		e.state.FormOpen = true
	} else if !e.AnySelected() {
		e.state.FormOpen = false
	}
	return e.state.FormOpen
}

func (e *Engine) AnySelected() bool {
	return anySelected(e.product.ID, e.state, e.chosen)
}

func (e *Engine) IsRowSelected(id int64) bool {
	return isSelected(e.chosen, id)
}

func isSelected(chosen ChosenReader, id int64) bool {
	return chosen != nil && chosen.Contains(id)
}

func anySelected(productID int64, s State, chosen ChosenReader) bool {
	if isSelected(chosen, productID) {
		return true
	}
	for _, v := range s.Resolved {
		if isSelected(chosen, v.ID) {
			return true
		}
	}
	return false
}
