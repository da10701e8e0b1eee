package catalog

import (
	"encoding/json"

	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
)

// Pricing is the one-of pricing mode of a product. A product is either a
// single SKU with one price or a multi-SKU with per-size varieties, never
// both and never neither.
type Pricing interface {
	isPricing()
}

// SingleSKU prices the product as a whole.
type SingleSKU struct {
	Price int `json:"price"`
}

func (SingleSKU) isPricing() {}

// MultiSKU prices the product per size.
type MultiSKU struct {
	Varieties []Variety `json:"varieties"`
}

func (MultiSKU) isPricing() {}

// Variety is one size/price pair of a multi-SKU product.
type Variety struct {
	Size  string `json:"size"`
	Price int    `json:"price"`
}

// Product is one catalog entry as published to callers.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Pricing  Pricing `json:"-"`
}

// MarshalJSON flattens the pricing mode into either a price or a varieties
// field, matching the wire shape.
func (p Product) MarshalJSON() ([]byte, error) {
	out := struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Category  string    `json:"category"`
		Price     *int      `json:"price,omitempty"`
		Varieties []Variety `json:"varieties,omitempty"`
	}{ID: p.ID, Name: p.Name, Category: p.Category}
	switch pricing := p.Pricing.(type) {
	case SingleSKU:
		price := pricing.Price
		out.Price = &price
	case MultiSKU:
		out.Varieties = pricing.Varieties
	}
	return json.Marshal(out)
}

// NewProduct builds a product, enforcing that exactly one pricing mode is
// present.
func NewProduct(id, name, category string, price *int, varieties []Variety) (Product, error) {
	if price != nil && len(varieties) > 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product has both a flat price and varieties").
			WithDetails(map[string]any{"name": name})
	}
	if price == nil && len(varieties) == 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product has neither a flat price nor varieties").
			WithDetails(map[string]any{"name": name})
	}
	product := Product{ID: id, Name: name, Category: category}
	if price != nil {
		product.Pricing = SingleSKU{Price: *price}
	} else {
		out := make([]Variety, len(varieties))
		copy(out, varieties)
		product.Pricing = MultiSKU{Varieties: out}
	}
	return product, nil
}

// BasePrice returns the flat price of a single-SKU product, or the first
// variety's price otherwise. Deletion against the remote keys on it.
func (p Product) BasePrice() int {
	switch pricing := p.Pricing.(type) {
	case SingleSKU:
		return pricing.Price
	case MultiSKU:
		if len(pricing.Varieties) > 0 {
			return pricing.Varieties[0].Price
		}
	}
	return 0
}

// Varieties returns the size/price pairs of a multi-SKU product, nil for a
// single SKU.
func (p Product) Varieties() []Variety {
	if pricing, ok := p.Pricing.(MultiSKU); ok {
		return pricing.Varieties
	}
	return nil
}
