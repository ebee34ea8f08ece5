package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcart/cart-service/internal/promotions"
	"github.com/retailcart/cart-service/pkg/enums"
	pkgerrors "github.com/retailcart/cart-service/pkg/errors"
)

// Clock supplies the current time. The promotion activation window is
// evaluated against it, so tests pin it to exercise edge dates.
type Clock func() time.Time

// Service exposes cart session operations over a Store and a promotion
// catalog.
type Service interface {
	CreateCart(ctx context.Context, input CreateCartInput) (*Cart, error)
	GetCart(ctx context.Context, id uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, id uuid.UUID, input AddItemInput) (*Cart, error)
	UpdateItemQuantity(ctx context.Context, id uuid.UUID, productID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, id uuid.UUID, productID string) (*Cart, error)
	ClearItems(ctx context.Context, id uuid.UUID) (*Cart, error)
	ApplyPromotion(ctx context.Context, id uuid.UUID, code string) (*Cart, error)
	RemovePromotion(ctx context.Context, id uuid.UUID, code string) (*Cart, error)
	ClearPromotions(ctx context.Context, id uuid.UUID) (*Cart, error)
	Summary(ctx context.Context, id uuid.UUID) (*Summary, error)
}

type service struct {
	store           Store
	catalog         promotions.Catalog
	clock           Clock
	taxRate         decimal.Decimal
	defaultCurrency enums.Currency
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Store           Store
	Catalog         promotions.Catalog
	Clock           Clock
	TaxRate         float64
	DefaultCurrency enums.Currency
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("promotion catalog required")
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	if params.TaxRate < 0 {
		return nil, fmt.Errorf("tax rate must be non-negative")
	}
	currency := params.DefaultCurrency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	return &service{
		store:           params.Store,
		catalog:         params.Catalog,
		clock:           params.Clock,
		taxRate:         decimal.NewFromFloat(params.TaxRate),
		defaultCurrency: currency,
	}, nil
}

// CreateCartInput captures the payload for a new cart session.
type CreateCartInput struct {
	CustomerID string
	Currency   string
}

// AddItemInput mirrors one add-to-cart request line.
type AddItemInput struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Summary is the roll-up view of a cart: counts, money, and tax applied to
// the discounted base.
type Summary struct {
	ItemCount       int
	UniqueItemCount int
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
}

// CreateCart starts an empty cart for the customer.
func (s *service) CreateCart(ctx context.Context, input CreateCartInput) (*Cart, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	currency := s.defaultCurrency
	if strings.TrimSpace(input.Currency) != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		currency = parsed
	}

	cart := New(customerID, currency, s.clock())
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return cart, nil
}

// GetCart loads an existing cart or reports not-found.
func (s *service) GetCart(ctx context.Context, id uuid.UUID) (*Cart, error) {
	return s.load(ctx, id)
}

// AddItem appends quantity for the product, merging with an existing line by
// product id. The aggregate itself tolerates any quantity; strict request
// validation lives here.
func (s *service) AddItem(ctx context.Context, id uuid.UUID, input AddItemInput) (*Cart, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	return s.mutate(ctx, id, func(cart *Cart) error {
		cart.AddItem(input.ProductID, input.UnitPrice, input.Quantity)
		return nil
	})
}

// UpdateItemQuantity sets the product's quantity; zero or less removes the
// line. Unknown product ids are a silent no-op.
func (s *service) UpdateItemQuantity(ctx context.Context, id uuid.UUID, productID string, quantity int) (*Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.mutate(ctx, id, func(cart *Cart) error {
		cart.UpdateItemQuantity(productID, quantity)
		return nil
	})
}

// RemoveItem deletes the product line if present; absent ids are a no-op.
func (s *service) RemoveItem(ctx context.Context, id uuid.UUID, productID string) (*Cart, error) {
	return s.mutate(ctx, id, func(cart *Cart) error {
		cart.RemoveItem(productID)
		return nil
	})
}

// ClearItems empties the cart's line items.
func (s *service) ClearItems(ctx context.Context, id uuid.UUID) (*Cart, error) {
	return s.mutate(ctx, id, func(cart *Cart) error {
		cart.ClearItems()
		return nil
	})
}

// ApplyPromotion resolves the code in the catalog and applies it to the
// cart. All four rejection outcomes (unknown code, not yet active, expired,
// conflicting) come back as typed errors with 400-level metadata; the
// rejection reason is also persisted on the cart while its promotion state
// stays untouched.
func (s *service) ApplyPromotion(ctx context.Context, id uuid.UUID, code string) (*Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate, err := s.catalog.Lookup(ctx, code)
	if err != nil && !errors.Is(err, promotions.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve promotion")
	}

	cart.ClearRejectionReasons()
	applyErr := cart.ApplyPromotion(candidate, s.clock())
	cart.UpdatedAt = s.clock()
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	if applyErr != nil {
		return nil, applyErr
	}
	return cart, nil
}

// RemovePromotion retracts one applied promotion by code.
func (s *service) RemovePromotion(ctx context.Context, id uuid.UUID, code string) (*Cart, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cart.RemovePromotion(code) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion is not applied to this cart")
	}
	return s.save(ctx, cart)
}

// ClearPromotions retracts every applied promotion.
func (s *service) ClearPromotions(ctx context.Context, id uuid.UUID) (*Cart, error) {
	return s.mutate(ctx, id, func(cart *Cart) error {
		cart.ClearPromotions()
		return nil
	})
}

// Summary derives the roll-up counts and totals. Tax applies to the
// discounted base.
func (s *service) Summary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	subtotal := cart.Subtotal()
	discount := cart.TotalDiscount()
	taxable := cart.FinalTotal()
	tax := taxable.Mul(s.taxRate)

	return &Summary{
		ItemCount:       cart.ItemCount(),
		UniqueItemCount: cart.UniqueItemCount(),
		Subtotal:        subtotal,
		DiscountAmount:  discount,
		Tax:             tax,
		Total:           taxable.Add(tax),
	}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Cart, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	cart, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(cart *Cart) error) (*Cart, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

func (s *service) save(ctx context.Context, cart *Cart) (*Cart, error) {
	cart.UpdatedAt = s.clock()
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return cart, nil
}
