package selection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeadmin/pkg/models"
)

var shirt = models.Product{
	ID:     1,
	Type:   models.ProductVariable,
	Name:   "Shirt",
	Price:  "20",
	Images: []models.Image{{Src: "https://img/shirt.png"}},
}

func TestRenderRow_SimpleProduct(t *testing.T) {
	p := models.Product{ID: 7, Type: models.ProductSimple, Name: "Mug", Price: "9.5"}
	chosen := NewChosenIDs(false, 7)

	v := RenderRow(p, nil, State{}, &chosen, RenderOptions{Currency: "USD"})

	assert.Equal(t, "Mug - $9.50", v.Name)
	assert.Equal(t, "product-search_select-7", v.InputID)
	assert.Equal(t, Control{Kind: ControlCheckbox, InputID: v.InputID, Value: 7, Checked: true}, v.Control)
	assert.True(t, v.Placeholder)
	assert.False(t, v.Customizable)
	assert.Empty(t, v.Variations)
	assert.False(t, v.ShowForm)
}

func TestRenderRow_SingularUsesRadio(t *testing.T) {
	p := models.Product{ID: 7, Type: models.ProductSimple, Name: "Mug", Price: "1"}
	chosen := NewChosenIDs(true)

	v := RenderRow(p, nil, State{}, &chosen, RenderOptions{Singular: true, Currency: "USD"})

	assert.Equal(t, ControlRadio, v.Control.Kind)
	assert.False(t, v.Control.Checked)
}

func TestRenderRow_VariableCollapsed(t *testing.T) {
	chosen := NewChosenIDs(false)
	s := State{Resolved: []models.Variation{colorVariation(11, "red")}}

	v := RenderRow(shirt, nil, s, &chosen, RenderOptions{Currency: "USD"})

	assert.Equal(t, Control{Kind: ControlCount, Count: 1}, v.Control)
	assert.True(t, v.Customizable)
	assert.Equal(t, "https://img/shirt.png", v.ImageSrc)
	assert.False(t, v.ShowForm, "nothing chosen and form closed")
	assert.Empty(t, v.Variations)
}

func TestRenderRow_VariableExpanded(t *testing.T) {
	red := colorVariation(11, "red")
	red.Price = "22"
	red.Image = &models.Image{Src: "https://img/red.png"}
	blue := colorVariation(12, "blue")

	chosen := NewChosenIDs(false, 11)
	s := State{Resolved: []models.Variation{red, blue}}

	v := RenderRow(shirt, []models.Variation{red, blue}, s, &chosen, RenderOptions{Currency: "USD"})

	require.True(t, v.ShowForm)
	assert.Equal(t, []AttributeOptions{{Name: "color", Options: []string{"red", "blue", "any"}}}, v.Attributes)
	require.Len(t, v.Variations, 2)

	r := v.Variations[0]
	assert.Equal(t, int64(11), r.ID)
	assert.True(t, r.IsVariation)
	assert.Equal(t, "Shirt - red - $22.00", r.Name)
	assert.Equal(t, "https://img/red.png", r.ImageSrc)
	assert.Equal(t, ControlCheckbox, r.Control.Kind)
	assert.True(t, r.Control.Checked)

	b := v.Variations[1]
	assert.Equal(t, "Shirt - blue - $20.00", b.Name, "falls back to product price")
	assert.Equal(t, "https://img/shirt.png", b.ImageSrc, "falls back to product image")
	assert.False(t, b.Control.Checked)
}

func TestRenderRow_FormOpenWithoutSelection(t *testing.T) {
	v := RenderRow(shirt, []models.Variation{colorVariation(11, "red")}, State{FormOpen: true}, nil, RenderOptions{})

	assert.True(t, v.FormOpen)
	assert.True(t, v.ShowForm)
	assert.Empty(t, v.Variations)
	assert.Equal(t, "Shirt - 20.00", v.Name)
}

func TestRenderRow_ResolvedVariationView(t *testing.T) {
	red := models.Variation{
		ID:         11,
		ProductID:  1,
		Price:      "25",
		Attributes: []models.VariationAttribute{{Name: "Color", Option: "Red"}},
		Image:      &models.Image{Src: "https://img/red.png"},
	}
	chosen := NewChosenIDs(false, 1, 11)
	s := State{Resolved: []models.Variation{red}}

	got := RenderRow(shirt, []models.Variation{red}, s, &chosen, RenderOptions{Currency: "USD"})

	want := RowView{
		ID:           1,
		InputID:      "product-search_select-1",
		Name:         "Shirt - $20.00",
		ImageSrc:     "https://img/shirt.png",
		Customizable: true,
		Control:      Control{Kind: ControlCount, Count: 1},
		ShowForm:     true,
		Attributes:   []AttributeOptions{{Name: "Color", Options: []string{"Red", "any"}}},
		Variations: []RowView{{
			ID:          11,
			InputID:     "product-search_select-11",
			Name:        "Shirt - Red - $25.00",
			ImageSrc:    "https://img/red.png",
			IsVariation: true,
			Control:     Control{Kind: ControlCheckbox, InputID: "product-search_select-11", Value: 11, Checked: true},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RenderRow mismatch (-want +got):\n%s", diff)
	}
}
