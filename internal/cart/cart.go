package cart

import "fmt"

// Key is the dedup/merge identity of a cart line. Two paid lines with the
// same key are always merged, never duplicated.
type Key struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
	Size  string `json:"size,omitempty"`
}

// String renders the key for logs and notices.
func (k Key) String() string {
	if k.Size == "" {
		return fmt.Sprintf("%s@%d", k.Name, k.Price)
	}
	return fmt.Sprintf("%s(%s)@%d", k.Name, k.Size, k.Price)
}

// Line is one row of the draft cart. A free line is system-derived from a
// paid line: price zero, the foregone price kept in OriginalPrice, and
// DerivedFrom pointing back at the triggering paid line's key.
type Line struct {
	Name          string `json:"name"`
	Size          string `json:"size,omitempty"`
	Price         int    `json:"price"`
	Quantity      int    `json:"quantity"`
	IsFree        bool   `json:"isFree"`
	OriginalPrice int    `json:"originalPrice,omitempty"`
	DerivedFrom   *Key   `json:"derivedFrom,omitempty"`
}

// Key returns the line's merge identity.
func (l Line) Key() Key {
	return Key{Name: l.Name, Price: l.Price, Size: l.Size}
}

// Selection is one chosen variety of a multi-SKU product together with the
// desired quantity.
type Selection struct {
	Size     string `json:"size"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// Total sums price times quantity across all lines. Free lines carry price
// zero, so they contribute nothing.
func Total(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += line.Price * line.Quantity
	}
	return total
}

// Clone returns a value copy of the lines, detaching derived-from pointers
// so a snapshot is never aliased to the live draft.
func Clone(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	for i, line := range lines {
		if line.DerivedFrom != nil {
			key := *line.DerivedFrom
			line.DerivedFrom = &key
		}
		out[i] = line
	}
	return out
}
