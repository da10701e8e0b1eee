package promo

import "strings"

// Eligibility maps product names to the size tokens the buy-one-get-one
// offer covers. A line without a size is eligible whenever its name appears
// here at all.
type Eligibility map[string][]string

// DefaultEligibility is the house offer sheet.
func DefaultEligibility() Eligibility {
	return Eligibility{
		"Italian sweet": {"med", "large"},
		"Heat 'n' sweet": {"med", "large"},
		"Hot stuff": {"med", "large"},
		"Garlic to hot": {"med", "large"},
		"Four season": {"med", "large"},
		"Super spicy": {"med", "large"},
		"Love in box (heart shape)": {"med", "large"},
		"Cheese pizza": {"med", "large"},
		"Chicago's spl. paneer": {"med", "large"},
		"Peri peri boom": {"med", "large"},
		"Mughlai retreat": {"med", "large"},
		"Karahi paneer pizza": {"med", "large"},
		"Makhni supreme": {"med", "large"},
		"7 veggies": {"med", "large"},
		"Mexicana overload": {"med", "large"},
		"Tandoori paneer": {"med", "large"},
		"Cheese pasta pizza": {"med", "large"},
		"Spicy pasta pizza": {"med", "large"},
		"Chicago's flood": {"med", "large"},
		"Bursty cheese pizza": {"med"},
	}
}

// Covers reports whether the named product in the given size is on the
// offer sheet. Size tokens compare lower-cased; an empty size only needs the
// name to be listed.
func (e Eligibility) Covers(name, size string) bool {
	sizes, ok := e[name]
	if !ok {
		return false
	}
	if size == "" {
		return true
	}
	needle := strings.ToLower(size)
	for _, candidate := range sizes {
		if candidate == needle {
			return true
		}
	}
	return false
}
