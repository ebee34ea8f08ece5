package promotions

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailcart/cart-service/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// Promotion is one discount rule from the catalog. Instances are immutable
// once resolved; carts reference them by code and never mutate them.
type Promotion struct {
	Code              string
	Description       string
	Kind              enums.DiscountKind
	Value             decimal.Decimal
	StartsOn          time.Time
	EndsOn            time.Time
	Combinable        bool
	IncompatibleCodes []string
}

// DateOnly strips the clock from a timestamp so activation windows compare on
// calendar days, both bounds inclusive.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ActiveOn reports whether the promotion window covers the given date.
func (p *Promotion) ActiveOn(date time.Time) bool {
	day := DateOnly(date)
	return !day.Before(DateOnly(p.StartsOn)) && !day.After(DateOnly(p.EndsOn))
}

// Discount computes this promotion's discount against the full pre-discount
// subtotal. Percentage promotions take value% of the subtotal; fixed-amount
// promotions are capped at the subtotal so a single promotion never drives a
// cart negative.
func (p *Promotion) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if p.Kind == enums.DiscountKindPercentage {
		return subtotal.Mul(p.Value).Div(oneHundred)
	}
	return decimal.Min(p.Value, subtotal)
}

// CompatibleWith reports whether both promotions may coexist on one cart.
// A non-combinable promotion excludes every other promotion, combinable or
// not; combinable promotions may still exclude each other by code.
func (p *Promotion) CompatibleWith(other *Promotion) bool {
	if !p.Combinable || !other.Combinable {
		return false
	}
	return !p.excludes(other.Code) && !other.excludes(p.Code)
}

func (p *Promotion) excludes(code string) bool {
	for _, excluded := range p.IncompatibleCodes {
		if excluded == code {
			return true
		}
	}
	return false
}

// Validate guards against malformed catalog records. A failure here is a
// programming or data error, not a business rejection: valid catalog data can
// never produce one.
func (p *Promotion) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("promotion code is required")
	}
	if !p.Kind.IsValid() {
		return fmt.Errorf("promotion %s: unknown discount kind %q", p.Code, p.Kind)
	}
	if p.Value.IsNegative() {
		return fmt.Errorf("promotion %s: discount value must be non-negative", p.Code)
	}
	if p.Kind == enums.DiscountKindPercentage && p.Value.GreaterThan(oneHundred) {
		return fmt.Errorf("promotion %s: percentage must be at most 100", p.Code)
	}
	if DateOnly(p.StartsOn).After(DateOnly(p.EndsOn)) {
		return fmt.Errorf("promotion %s: activation window start is after end", p.Code)
	}
	return nil
}
