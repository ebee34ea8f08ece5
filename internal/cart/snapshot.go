package cart

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcart/cart-service/internal/promotions"
	"github.com/retailcart/cart-service/pkg/enums"
)

// Snapshots are the wire form stores keep between requests. Applied
// promotions are embedded whole so rehydration never needs a catalog
// round-trip; the promotion's lifetime is independent of the cart that
// references it.

type cartSnapshot struct {
	ID         string              `json:"id"`
	CustomerID string              `json:"customer_id"`
	Currency   string              `json:"currency"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Items      []itemSnapshot      `json:"items"`
	Applied    []promotionSnapshot `json:"applied_promotions"`
	Rejections []string            `json:"rejections,omitempty"`
}

type itemSnapshot struct {
	ProductID string `json:"product_id"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type promotionSnapshot struct {
	Code              string    `json:"code"`
	Description       string    `json:"description"`
	Kind              string    `json:"kind"`
	Value             string    `json:"value"`
	StartsOn          time.Time `json:"starts_on"`
	EndsOn            time.Time `json:"ends_on"`
	Combinable        bool      `json:"combinable"`
	IncompatibleCodes []string  `json:"incompatible_codes,omitempty"`
}

func encodeCart(c *Cart) ([]byte, error) {
	snap := cartSnapshot{
		ID:         c.ID.String(),
		CustomerID: c.CustomerID,
		Currency:   c.Currency.String(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Rejections: c.rejections,
	}
	for _, item := range c.items {
		snap.Items = append(snap.Items, itemSnapshot{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
		})
	}
	for _, promo := range c.applied {
		snap.Applied = append(snap.Applied, promotionSnapshot{
			Code:              promo.Code,
			Description:       promo.Description,
			Kind:              promo.Kind.String(),
			Value:             promo.Value.String(),
			StartsOn:          promo.StartsOn,
			EndsOn:            promo.EndsOn,
			Combinable:        promo.Combinable,
			IncompatibleCodes: promo.IncompatibleCodes,
		})
	}
	return json.Marshal(snap)
}

func decodeCart(data []byte) (*Cart, error) {
	var snap cartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cart snapshot: %w", err)
	}

	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return nil, fmt.Errorf("decoding cart id: %w", err)
	}

	c := &Cart{
		ID:         id,
		CustomerID: snap.CustomerID,
		Currency:   enums.Currency(snap.Currency),
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  snap.UpdatedAt,
		rejections: snap.Rejections,
	}

	for _, item := range snap.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("decoding unit price for %s: %w", item.ProductID, err)
		}
		c.items = append(c.items, LineItem{
			ProductID: item.ProductID,
			UnitPrice: price,
			Quantity:  item.Quantity,
		})
	}

	for _, promo := range snap.Applied {
		value, err := decimal.NewFromString(promo.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding promotion %s value: %w", promo.Code, err)
		}
		c.applied = append(c.applied, &promotions.Promotion{
			Code:              promo.Code,
			Description:       promo.Description,
			Kind:              enums.DiscountKind(promo.Kind),
			Value:             value,
			StartsOn:          promo.StartsOn,
			EndsOn:            promo.EndsOn,
			Combinable:        promo.Combinable,
			IncompatibleCodes: promo.IncompatibleCodes,
		})
	}

	return c, nil
}
