package models

// ProductType is the closed set of catalog product kinds the selection
// engine distinguishes.
type ProductType string

const (
	ProductSimple   ProductType = "simple"
	ProductVariable ProductType = "variable"
)

// AnyOption is the attribute option meaning "unconstrained".
const AnyOption = "any"

// ParseProductType maps a stored type string onto the closed enum.
// Anything that is not "variable" behaves like a simple product.
func ParseProductType(s string) ProductType {
	if s == string(ProductVariable) {
		return ProductVariable
	}
	return ProductSimple
}

type Image struct {
	Src string `json:"src"`
}

type Product struct {
	ID     int64       `json:"id"`
	SiteID int64       `json:"site_id"`
	Type   ProductType `json:"type"`
	Name   string      `json:"name"`
	Price  string      `json:"price"`
	Images []Image     `json:"images"`
}

// IsVariable reports whether the product has sub-variations.
func (p Product) IsVariable() bool {
	return p.Type == ProductVariable
}

type VariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

type Variation struct {
	ID         int64                `json:"id"`
	ProductID  int64                `json:"product_id"`
	Price      string               `json:"price,omitempty"`
	Attributes []VariationAttribute `json:"attributes"`
	Image      *Image               `json:"image,omitempty"`
}
