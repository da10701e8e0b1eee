package enums

import "fmt"

// OrderType tracks which kitchen queue a ticket belongs to.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeTakeaway OrderType = "takeaway"
)

var validOrderTypes = []OrderType{
	OrderTypeDelivery,
	OrderTypeDineIn,
	OrderTypeTakeaway,
}

// OrderTypes returns every known order type in display order.
func OrderTypes() []OrderType {
	types := make([]OrderType, len(validOrderTypes))
	copy(types, validOrderTypes)
	return types
}

// String implements fmt.Stringer.
func (o OrderType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderType.
func (o OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
