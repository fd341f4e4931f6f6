package enums

import "fmt"

// PaymentStatus tracks the payment axis of an order, independent of its
// fulfillment status.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaying PaymentStatus = "paying"
	PaymentStatusPaid   PaymentStatus = "paid"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaying,
	PaymentStatusPaid,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// rank orders payment statuses for forward-only transitions.
func (p PaymentStatus) rank() int {
	switch p {
	case PaymentStatusUnpaid:
		return 0
	case PaymentStatusPaying:
		return 1
	case PaymentStatusPaid:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether the status may move to target. Payment only
// moves forward: unpaid -> paying -> paid.
func (p PaymentStatus) CanAdvanceTo(target PaymentStatus) bool {
	return target.IsValid() && target.rank() > p.rank()
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
