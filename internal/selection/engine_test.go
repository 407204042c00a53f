package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeadmin/pkg/models"
)

func colorVariation(id int64, color string) models.Variation {
	return models.Variation{
		ID:         id,
		ProductID:  1,
		Attributes: []models.VariationAttribute{{Name: "color", Option: color}},
	}
}

type recorder struct {
	events []Event
}

func (r *recorder) emit(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) ids() []int64 {
	out := []int64{}
	for _, ev := range r.events {
		out = append(out, ev.ID)
	}
	return out
}

func newTestEngine(chosen ChosenReader) (*Engine, *recorder) {
	rec := &recorder{}
	e := NewEngine(models.Product{ID: 1, Type: models.ProductVariable, Name: "Shirt"}, chosen, rec.emit)
	e.SetVariations([]models.Variation{colorVariation(11, "red"), colorVariation(12, "blue")})
	return e, rec
}

func resolvedIDs(s State) []int64 {
	out := []int64{}
	for _, v := range s.Resolved {
		out = append(out, v.ID)
	}
	return out
}

func TestResolve_SingleMatchEmitsProductThenVariations(t *testing.T) {
	e, rec := newTestEngine(nil)

	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	assert.Equal(t, []int64{11}, resolvedIDs(e.State()))
	assert.Equal(t, []int64{1, 11}, rec.ids())
	for _, ev := range rec.events {
		assert.Equal(t, EventSelect, ev.Kind)
	}
}

func TestResolve_EmitsEveryResolvedVariationInOrder(t *testing.T) {
	e, rec := newTestEngine(nil)

	e.ResolveAttributeChoice(map[string]string{"color": "blue"})
	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	assert.Equal(t, []int64{12, 11}, resolvedIDs(e.State()))
	assert.Equal(t, []int64{1, 12, 1, 12, 11}, rec.ids())
}

func TestResolve_NoMatchIsNoop(t *testing.T) {
	e, rec := newTestEngine(nil)

	var diag []Unresolved
	e.OnUnresolved = func(u Unresolved) { diag = append(diag, u) }

	e.ResolveAttributeChoice(map[string]string{"color": "green"})

	assert.Empty(t, e.State().Resolved)
	assert.Empty(t, rec.events)
	require.Len(t, diag, 1)
	assert.Equal(t, 0, diag[0].Matches)
	assert.Equal(t, int64(1), diag[0].ProductID)
}

func TestResolve_AnyIsNoopRegardlessOfCollection(t *testing.T) {
	cases := map[string][]models.Variation{
		"empty":  nil,
		"two":    {colorVariation(11, "red"), colorVariation(12, "blue")},
		"anyvar": {colorVariation(13, "any")},
	}
	for name, vs := range cases {
		t.Run(name, func(t *testing.T) {
			e, rec := newTestEngine(nil)
			e.SetVariations(vs)
			called := false
			e.OnUnresolved = func(Unresolved) { called = true }

			e.ResolveAttributeChoice(map[string]string{"color": "any"})
			e.ResolveAttributeChoice(map[string]string{"color": "red", "size": "any"})

			assert.Empty(t, e.State().Resolved)
			assert.Empty(t, rec.events)
			assert.False(t, called, "any choices are not reported as unresolved")
		})
	}
}

func TestResolve_AmbiguousIsNoop(t *testing.T) {
	e, rec := newTestEngine(nil)
	e.SetVariations([]models.Variation{colorVariation(11, "red"), colorVariation(14, "red")})

	var matches int
	e.OnUnresolved = func(u Unresolved) { matches = u.Matches }

	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	assert.Empty(t, e.State().Resolved)
	assert.Empty(t, rec.events)
	assert.Equal(t, 2, matches)
}

func TestResolve_IdempotentMembership(t *testing.T) {
	e, rec := newTestEngine(nil)

	e.ResolveAttributeChoice(map[string]string{"color": "red"})
	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	assert.Equal(t, []int64{11}, resolvedIDs(e.State()))
	assert.Equal(t, []int64{1, 11, 1, 11}, rec.ids())
}

func TestResolve_MultiAttributeExactMatch(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(models.Product{ID: 5, Type: models.ProductVariable}, nil, rec.emit)
	e.SetVariations([]models.Variation{
		{ID: 51, Attributes: []models.VariationAttribute{{Name: "color", Option: "red"}, {Name: "size", Option: "S"}}},
		{ID: 52, Attributes: []models.VariationAttribute{{Name: "color", Option: "red"}, {Name: "size", Option: "M"}}},
	})

	// missing size binding matches nothing
	e.ResolveAttributeChoice(map[string]string{"color": "red"})
	assert.Empty(t, rec.events)

	e.ResolveAttributeChoice(map[string]string{"color": "red", "size": "M"})
	assert.Equal(t, []int64{5, 52}, rec.ids())
}

func TestResolve_BeforeVariationsArrive(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(models.Product{ID: 1, Type: models.ProductVariable}, nil, rec.emit)

	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	assert.Empty(t, e.State().Resolved)
	assert.Empty(t, rec.events)
}

func TestDeselectVariant_Idempotent(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	assert.True(t, e.DeselectVariant(11))
	assert.False(t, e.DeselectVariant(11))
	assert.False(t, e.DeselectVariant(99))
	assert.Empty(t, e.State().Resolved)
}

func TestChange_DeselectsThenToggles(t *testing.T) {
	e, rec := newTestEngine(nil)
	e.ResolveAttributeChoice(map[string]string{"color": "red"})
	rec.events = nil

	e.Change(11)

	assert.Empty(t, e.State().Resolved)
	assert.Equal(t, []Event{{Kind: EventToggle, ID: 11}}, rec.events)
}

func TestToggleCustomizationForm(t *testing.T) {
	chosen := NewChosenIDs(false)
	e, _ := newTestEngine(&chosen)

	assert.True(t, e.ToggleCustomizationForm(), "closed -> open")
	assert.False(t, e.ToggleCustomizationForm(), "open -> closed when nothing selected")

	e.ToggleCustomizationForm()
	chosen.Select(1)
	assert.True(t, e.ToggleCustomizationForm(), "stays open while base product chosen")

	chosen.Toggle(1)
	e.ResolveAttributeChoice(map[string]string{"color": "blue"})
	chosen = NewChosenIDs(false, 12)
	assert.True(t, e.AnySelected())
	assert.True(t, e.ToggleCustomizationForm(), "stays open while a resolved variation is chosen")

	chosen = NewChosenIDs(false)
	assert.False(t, e.ToggleCustomizationForm())
}

func TestIsRowSelected(t *testing.T) {
	multi := NewChosenIDs(false, 1, 11)
	e, _ := newTestEngine(&multi)
	assert.True(t, e.IsRowSelected(11))
	assert.False(t, e.IsRowSelected(12))

	single := NewChosenIDs(true, 12)
	e2, _ := newTestEngine(&single)
	assert.True(t, e2.IsRowSelected(12))
	assert.False(t, e2.IsRowSelected(1))

	e3, _ := newTestEngine(nil)
	assert.False(t, e3.IsRowSelected(1))
}

func TestSetProduct_ResetsOnDifferentProduct(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	e.SetProduct(models.Product{ID: 1, Type: models.ProductVariable, Name: "Renamed"})
	assert.Len(t, e.State().Resolved, 1)
	assert.Len(t, e.Variations(), 2)

	e.SetProduct(models.Product{ID: 2, Type: models.ProductVariable})
	assert.Empty(t, e.State().Resolved)
	assert.Empty(t, e.Variations())
}

func TestState_IsCopied(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.ResolveAttributeChoice(map[string]string{"color": "red"})

	s := e.State()
	s.Resolved[0].ID = 999

	assert.Equal(t, []int64{11}, resolvedIDs(e.State()))
}
