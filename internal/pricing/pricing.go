package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/namito/commerce-backend/pkg/enums"
)

// EffectivePrice computes the unit price charged for a variant given its base
// price in minor currency units and an optional discount. Percent discounts
// round half-up to the nearest minor unit; both discount kinds floor at zero
// so a discount can never produce a negative price. A missing, zero or
// unknown discount leaves the base price untouched.
func EffectivePrice(basePriceCents int, discountValue *decimal.Decimal, discountType *enums.DiscountType) int {
	if discountValue == nil || discountType == nil || discountValue.IsZero() {
		return basePriceCents
	}

	base := decimal.NewFromInt(int64(basePriceCents))

	var price decimal.Decimal
	switch *discountType {
	case enums.DiscountTypePercent:
		discount := discountValue.Div(decimal.NewFromInt(100)).Mul(base)
		price = base.Sub(discount)
	case enums.DiscountTypeFixedUnit:
		price = base.Sub(*discountValue)
	default:
		return basePriceCents
	}

	rounded := price.Round(0)
	if rounded.IsNegative() {
		return 0
	}
	return int(rounded.IntPart())
}

// Subtotal is the line amount for quantity units at the effective price.
func Subtotal(basePriceCents int, discountValue *decimal.Decimal, discountType *enums.DiscountType, quantity int) int {
	return EffectivePrice(basePriceCents, discountValue, discountType) * quantity
}
