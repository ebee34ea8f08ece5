package cart

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	cartsvc "github.com/retailcart/cart-service/internal/cart"
)

// CartView is the cart snapshot exposed through the API. Money fields are
// emitted as JSON numbers rounded to two decimal places; the exact decimals
// live only inside the aggregate.
type CartView struct {
	ID                string          `json:"id"`
	CustomerID        string          `json:"customerId"`
	Currency          string          `json:"currency"`
	Items             []CartItemView  `json:"items"`
	AppliedPromotions []PromotionView `json:"appliedPromotions"`
	Subtotal          json.Number     `json:"subtotal"`
	DiscountAmount    json.Number     `json:"discountAmount"`
	Total             json.Number     `json:"total"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// CartItemView is one product line in the view.
type CartItemView struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
	Subtotal  json.Number `json:"subtotal"`
}

// PromotionView describes an applied promotion and the discount it currently
// contributes.
type PromotionView struct {
	Code           string      `json:"code"`
	Description    string      `json:"description"`
	DiscountAmount json.Number `json:"discountAmount"`
}

// SummaryView is the roll-up returned by the summary endpoint.
type SummaryView struct {
	ItemCount       int         `json:"itemCount"`
	UniqueItemCount int         `json:"uniqueItemCount"`
	Subtotal        json.Number `json:"subtotal"`
	DiscountAmount  json.Number `json:"discountAmount"`
	Tax             json.Number `json:"tax"`
	Total           json.Number `json:"total"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.Round(2).String())
}

func newCartView(c *cartsvc.Cart) CartView {
	items := make([]CartItemView, 0, len(c.Items()))
	for _, item := range c.Items() {
		items = append(items, CartItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     money(item.UnitPrice),
			Subtotal:  money(item.Subtotal()),
		})
	}

	subtotal := c.Subtotal()
	promos := make([]PromotionView, 0, len(c.AppliedPromotions()))
	for _, promo := range c.AppliedPromotions() {
		promos = append(promos, PromotionView{
			Code:           promo.Code,
			Description:    promo.Description,
			DiscountAmount: money(promo.Discount(subtotal)),
		})
	}

	return CartView{
		ID:                c.ID.String(),
		CustomerID:        c.CustomerID,
		Currency:          c.Currency.String(),
		Items:             items,
		AppliedPromotions: promos,
		Subtotal:          money(subtotal),
		DiscountAmount:    money(c.TotalDiscount()),
		Total:             money(c.FinalTotal()),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func newSummaryView(s *cartsvc.Summary) SummaryView {
	return SummaryView{
		ItemCount:       s.ItemCount,
		UniqueItemCount: s.UniqueItemCount,
		Subtotal:        money(s.Subtotal),
		DiscountAmount:  money(s.DiscountAmount),
		Tax:             money(s.Tax),
		Total:           money(s.Total),
	}
}
