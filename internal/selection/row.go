package selection

import (
	"fmt"

	"storeadmin/pkg/format"
	"storeadmin/pkg/models"
)

const (
	ControlCount    = "count"
	ControlRadio    = "radio"
	ControlCheckbox = "checkbox"
)

type Control struct {
	Kind    string `json:"kind"`
	InputID string `json:"input_id,omitempty"`
	Value   int64  `json:"value,omitempty"`
	Checked bool   `json:"checked,omitempty"`
	Count   int    `json:"count,omitempty"`
}

type AttributeOptions struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// RowView is what the client draws for one product row.
type RowView struct {
	ID           int64   `json:"id"`
	InputID      string  `json:"input_id"`
	Name         string  `json:"name"`
	ImageSrc     string  `json:"image_src,omitempty"`
	Placeholder  bool    `json:"placeholder"`
	IsVariation  bool    `json:"is_variation,omitempty"`
	Customizable bool    `json:"customizable,omitempty"`
	Control      Control `json:"control"`

	FormOpen   bool               `json:"form_open,omitempty"`
	ShowForm   bool               `json:"show_form,omitempty"`
	Attributes []AttributeOptions `json:"attributes,omitempty"`
	Variations []RowView          `json:"variations,omitempty"`
}

type RenderOptions struct {
	Singular bool
	Currency string
}

// rowItem is a product, or a product overlaid with one of its variations.
type rowItem struct {
	id          int64
	typ         models.ProductType
	name        string
	price       string
	imageSrc    string
	isVariation bool
	variation   models.Variation
}

func productItem(p models.Product) rowItem {
	it := rowItem{id: p.ID, typ: p.Type, name: p.Name, price: p.Price}
	if len(p.Images) > 0 {
		it.imageSrc = p.Images[0].Src
	}
	return it
}

func variationItem(p models.Product, v models.Variation) rowItem {
	it := productItem(p)
	it.id = v.ID
	it.isVariation = true
	it.variation = v
	if v.Price != "" {
		it.price = v.Price
	}
	if v.Image != nil && v.Image.Src != "" {
		it.imageSrc = v.Image.Src
	}
	return it
}

func inputID(id int64) string {
	return fmt.Sprintf("product-search_select-%d", id)
}

// RenderRow builds the view for a product row from its state and the host's
// chosen ids. It does not mutate anything.
func RenderRow(p models.Product, variations []models.Variation, s State, chosen ChosenReader, opts RenderOptions) RowView {
	view := renderItem(productItem(p), s, chosen, opts)
	view.FormOpen = s.FormOpen

	if p.Type != models.ProductVariable {
		return view
	}
	if !anySelected(p.ID, s, chosen) && !s.FormOpen {
		return view
	}

	view.ShowForm = true
	view.Attributes = attributeOptions(variations)
	for _, v := range s.Resolved {
		view.Variations = append(view.Variations, renderItem(variationItem(p, v), s, chosen, opts))
	}
	return view
}

func renderItem(it rowItem, s State, chosen ChosenReader, opts RenderOptions) RowView {
	price := format.Price(it.price, opts.Currency)
	name := fmt.Sprintf("%s - %s", it.name, price)
	if it.isVariation {
		name = fmt.Sprintf("%s - %s - %s", it.name, format.VariationName(it.variation), price)
	}

	view := RowView{
		ID:          it.id,
		InputID:     inputID(it.id),
		Name:        name,
		ImageSrc:    it.imageSrc,
		Placeholder: it.imageSrc == "",
		IsVariation: it.isVariation,
	}

	if it.typ == models.ProductVariable && !it.isVariation {
		view.Customizable = true
		view.Control = Control{Kind: ControlCount, Count: len(s.Resolved)}
		return view
	}

	kind := ControlCheckbox
	if opts.Singular {
		kind = ControlRadio
	}
	view.Control = Control{
		Kind:    kind,
		InputID: view.InputID,
		Value:   it.id,
		Checked: isSelected(chosen, it.id),
	}
	return view
}

// attributeOptions lists the distinct options per attribute name in order of
// first appearance, each ending with the "any" option.
func attributeOptions(variations []models.Variation) []AttributeOptions {
	var out []AttributeOptions
	index := map[string]int{}
	seen := map[string]map[string]bool{}

	for _, v := range variations {
		for _, a := range v.Attributes {
			i, ok := index[a.Name]
			if !ok {
				i = len(out)
				index[a.Name] = i
				seen[a.Name] = map[string]bool{}
				out = append(out, AttributeOptions{Name: a.Name})
			}
			if a.Option == "" || a.Option == models.AnyOption || seen[a.Name][a.Option] {
				continue
			}
			seen[a.Name][a.Option] = true
			out[i].Options = append(out[i].Options, a.Option)
		}
	}
	for i := range out {
		out[i].Options = append(out[i].Options, models.AnyOption)
	}
	return out
}
