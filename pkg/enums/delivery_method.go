package enums

import "fmt"

// DeliveryMethod selects how an order reaches the buyer.
type DeliveryMethod string

const (
	DeliveryMethodCourier DeliveryMethod = "courier"
	DeliveryMethodPickup  DeliveryMethod = "pickup"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodCourier,
	DeliveryMethodPickup,
}

// String implements fmt.Stringer.
func (d DeliveryMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (d DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// RequiresAddress reports whether the method needs a resolvable user address.
func (d DeliveryMethod) RequiresAddress() bool {
	return d == DeliveryMethodCourier
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
