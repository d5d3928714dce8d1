package discounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode folds a code or title for case-insensitive lookup.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Calculator holds the currency precision and tax rate used for money math.
type Calculator struct {
	minorUnits int32
	taxRate    decimal.Decimal
}

// NewCalculator builds a calculator. taxRate is a fraction (0.05 for 5%).
func NewCalculator(minorUnits int32, taxRate decimal.Decimal) Calculator {
	if minorUnits < 0 {
		minorUnits = 0
	}
	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	return Calculator{minorUnits: minorUnits, taxRate: taxRate}
}

// Subtotal sums unitPrice × quantity over the lines.
func Subtotal(lines []CartLine) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, errEmptyCart()
	}
	total := decimal.Zero
	for i, line := range lines {
		if line.Quantity <= 0 {
			return decimal.Zero, errInvalidCartLine(i, fmt.Sprintf("quantity must be positive, got %d", line.Quantity))
		}
		if line.UnitPrice.IsNegative() {
			return decimal.Zero, errInvalidCartLine(i, "unit price must not be negative")
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}

// CheckWindow enforces the inclusive validFrom..validTill window.
func CheckWindow(def Definition, now time.Time) error {
	if now.Before(def.ValidFrom) || now.After(def.ValidTill) {
		return errNotApplicable(def)
	}
	return nil
}

// CheckUsage enforces the global and per-user redemption caps.
func CheckUsage(def Definition, usage Usage) error {
	if def.UsageLimit != nil && usage.Total >= int64(*def.UsageLimit) {
		return errUsageLimitExceeded(def)
	}
	if def.UserLimit != nil && usage.ByUser >= int64(*def.UserLimit) {
		return errPerUserLimitExceeded(def)
	}
	return nil
}

// CheckMinimum rejects subtotals below the definition's minimum cart amount.
func CheckMinimum(def Definition, subtotal decimal.Decimal) error {
	if def.MinAmount.Valid && subtotal.LessThan(def.MinAmount.Decimal) {
		return errBelowMinimum(def.MinAmount.Decimal)
	}
	return nil
}

// Compute derives the discount for subtotal. The result never exceeds subtotal,
// never exceeds MaxDiscount for percentage definitions, and is floored to the
// currency's minor unit.
func (c Calculator) Compute(def Definition, subtotal decimal.Decimal) Breakdown {
	var amount decimal.Decimal
	switch def.Type {
	case enums.DiscountTypeFlat:
		amount = decimal.Min(def.Value, subtotal)
	case enums.DiscountTypePercentage:
		amount = subtotal.Mul(def.Value).Div(hundred)
		if def.MaxDiscount.Valid {
			amount = decimal.Min(amount, def.MaxDiscount.Decimal)
		}
		amount = decimal.Min(amount, subtotal)
	default:
		amount = decimal.Zero
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	out := Breakdown{
		Kind:           def.Kind,
		DiscountID:     def.ID,
		Code:           def.Label,
		DiscountAmount: amount.RoundFloor(c.minorUnits),
		DiscountType:   def.Type,
		DiscountValue:  def.Value,
	}
	out.AppliedMinAmount = def.MinAmount
	if def.Type == enums.DiscountTypePercentage {
		out.AppliedMaxDiscount = def.MaxDiscount
	}
	return out
}

// Tax applies the configured rate to subtotal, floored to the minor unit.
func (c Calculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	if c.taxRate.IsZero() {
		return decimal.Zero
	}
	return subtotal.Mul(c.taxRate).RoundFloor(c.minorUnits)
}

// AssembleTotal computes subtotal + delivery + tax - discount, clamped at zero.
func (c Calculator) AssembleTotal(subtotal, delivery, discount decimal.Decimal) Totals {
	tax := c.Tax(subtotal)
	total := subtotal.Add(delivery).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal:        subtotal,
		DeliveryCharges: delivery,
		Tax:             tax,
		Discount:        discount,
		Total:           total,
	}
}
