package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcart/cart-service/internal/promotions"
	"github.com/retailcart/cart-service/pkg/enums"
	pkgerrors "github.com/retailcart/cart-service/pkg/errors"
)

// LineItem is one product line in a cart.
type LineItem struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns unit price times quantity. Rounding and currency
// formatting are presentation concerns and happen at the API edge.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart aggregates line items and applied promotions for one checkout session.
// All totals are derived on demand and never cached across mutation. A cart
// has exactly one logical owner at a time; the aggregate itself carries no
// locks.
type Cart struct {
	ID         uuid.UUID
	CustomerID string
	Currency   enums.Currency
	CreatedAt  time.Time
	UpdatedAt  time.Time

	items      []LineItem
	applied    []*promotions.Promotion
	rejections []string
}

// New creates an empty cart for the customer.
func New(customerID string, currency enums.Currency, now time.Time) *Cart {
	return &Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		Currency:   currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddItem inserts a new line item, or increments the quantity of an existing
// one with the same product id. The unit price of an existing line is
// retained: first write wins.
func (c *Cart) AddItem(productID string, unitPrice decimal.Decimal, quantity int) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, LineItem{
		ProductID: productID,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	})
}

// UpdateItemQuantity sets the quantity for the given product. A quantity of
// zero or less removes the line. Unknown product ids are a silent no-op.
func (c *Cart) UpdateItemQuantity(productID string, quantity int) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			if quantity <= 0 {
				c.RemoveItem(productID)
			} else {
				c.items[i].Quantity = quantity
			}
			return
		}
	}
}

// RemoveItem deletes the line with the given product id, reporting whether it
// was present.
func (c *Cart) RemoveItem(productID string) bool {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// ClearItems empties the cart's line items.
func (c *Cart) ClearItems() {
	c.items = nil
}

// Items returns the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// UniqueItemCount is the number of distinct product lines.
func (c *Cart) UniqueItemCount() int {
	return len(c.items)
}

// ApplyPromotion validates the candidate against the activation window and
// the already-applied promotions, then records it on acceptance. A nil
// candidate means the code did not resolve in the catalog. Rejections are
// returned as typed errors and also recorded as human-readable reasons;
// they never change applied-promotion state.
func (c *Cart) ApplyPromotion(candidate *promotions.Promotion, today time.Time) error {
	if candidate == nil {
		return c.reject(pkgerrors.New(pkgerrors.CodeInvalidPromotion, "the promotion code is invalid"))
	}

	if !candidate.ActiveOn(today) {
		if promotions.DateOnly(today).Before(promotions.DateOnly(candidate.StartsOn)) {
			return c.reject(pkgerrors.New(pkgerrors.CodePromotionNotYetActive, "this promotion is not currently active"))
		}
		return c.reject(pkgerrors.New(pkgerrors.CodePromotionExpired, "this promotion code has expired"))
	}

	// First conflict wins: stop at the earliest applied promotion that is
	// incompatible rather than collecting every conflict.
	// Re-applying a code is checked like any other candidate: a combinable
	// promotion is compatible with itself and falls through to the upsert,
	// while a non-combinable one conflicts with its own applied entry.
	for _, existing := range c.applied {
		if !existing.CompatibleWith(candidate) {
			return c.reject(
				pkgerrors.New(pkgerrors.CodePromotionConflict,
					fmt.Sprintf("this promotion cannot be combined with %s", existing.Code)).
					WithDetails(map[string]string{"conflicting_code": existing.Code}),
			)
		}
	}

	// Upsert by code so re-applying the same promotion is idempotent.
	for i, existing := range c.applied {
		if existing.Code == candidate.Code {
			c.applied[i] = candidate
			return nil
		}
	}
	c.applied = append(c.applied, candidate)
	return nil
}

func (c *Cart) reject(err *pkgerrors.Error) error {
	c.rejections = append(c.rejections, err.Message())
	return err
}

// RemovePromotion deletes the applied promotion with the given code,
// reporting whether it was present.
func (c *Cart) RemovePromotion(code string) bool {
	for i, existing := range c.applied {
		if existing.Code == code {
			c.applied = append(c.applied[:i], c.applied[i+1:]...)
			return true
		}
	}
	return false
}

// ClearPromotions removes every applied promotion.
func (c *Cart) ClearPromotions() {
	c.applied = nil
}

// AppliedPromotions returns applied promotions in application order.
func (c *Cart) AppliedPromotions() []*promotions.Promotion {
	out := make([]*promotions.Promotion, len(c.applied))
	copy(out, c.applied)
	return out
}

// RejectionReasons returns the recorded reasons from failed promotion
// applications, oldest first.
func (c *Cart) RejectionReasons() []string {
	out := make([]string, len(c.rejections))
	copy(out, c.rejections)
	return out
}

// ClearRejectionReasons discards recorded rejection reasons.
func (c *Cart) ClearRejectionReasons() {
	c.rejections = nil
}

// Subtotal sums the line subtotals before any discount.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.items {
		subtotal = subtotal.Add(item.Subtotal())
	}
	return subtotal
}

// TotalDiscount sums every applied promotion's discount, each computed
// against the full pre-discount subtotal. Stacked percentage promotions are
// additive on the original base, never compounding, so the sum may exceed
// the subtotal; FinalTotal clamps at zero.
func (c *Cart) TotalDiscount() decimal.Decimal {
	subtotal := c.Subtotal()
	total := decimal.Zero
	for _, promo := range c.applied {
		total = total.Add(promo.Discount(subtotal))
	}
	return total
}

// FinalTotal is the subtotal minus the total discount, floored at zero.
func (c *Cart) FinalTotal() decimal.Decimal {
	total := c.Subtotal().Sub(c.TotalDiscount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
