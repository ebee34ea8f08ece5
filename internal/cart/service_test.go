package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/retailcart/cart-service/internal/promotions"
	"github.com/retailcart/cart-service/pkg/enums"
	pkgerrors "github.com/retailcart/cart-service/pkg/errors"
)

type stubCatalog struct {
	promos    map[string]*promotions.Promotion
	lookupErr error
}

func (s *stubCatalog) Lookup(ctx context.Context, code string) (*promotions.Promotion, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	promo, ok := s.promos[code]
	if !ok {
		return nil, promotions.ErrNotFound
	}
	return promo, nil
}

func (s *stubCatalog) List(ctx context.Context) ([]*promotions.Promotion, error) {
	out := make([]*promotions.Promotion, 0, len(s.promos))
	for _, promo := range s.promos {
		out = append(out, promo)
	}
	return out, nil
}

type failingStore struct {
	Store
	saveErr error
}

func (f *failingStore) Save(ctx context.Context, cart *Cart) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, cart)
}

func newTestService(t *testing.T, promos ...*promotions.Promotion) (Service, *MemoryStore) {
	t.Helper()

	catalog := &stubCatalog{promos: map[string]*promotions.Promotion{}}
	for _, promo := range promos {
		catalog.promos[promo.Code] = promo
	}

	store := NewMemoryStore()
	svc, err := NewService(ServiceParams{
		Store:           store,
		Catalog:         catalog,
		Clock:           func() time.Time { return today },
		TaxRate:         0.08,
		DefaultCurrency: enums.CurrencyUSD,
	})
	require.NoError(t, err)
	return svc, store
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewService(ServiceParams{Catalog: &stubCatalog{}})
	require.Error(t, err)

	_, err = NewService(ServiceParams{Store: NewMemoryStore()})
	require.Error(t, err)

	_, err = NewService(ServiceParams{Store: NewMemoryStore(), Catalog: &stubCatalog{}, TaxRate: -0.1})
	require.Error(t, err)
}

func TestCreateCart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, enums.CurrencyUSD, created.Currency)
	require.Equal(t, today, created.CreatedAt)

	loaded, err := svc.GetCart(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, loaded.ID)
	require.Equal(t, "customer-1", loaded.CustomerID)
}

func TestCreateCartValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "  "})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1", Currency: "XXX"})
	requireCode(t, err, pkgerrors.CodeValidation)

	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1", Currency: "EUR"})
	require.NoError(t, err)
	require.Equal(t, enums.CurrencyEUR, created.Currency)
}

func TestGetCartNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.GetCart(context.Background(), uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.GetCart(context.Background(), uuid.Nil)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestAddItemValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input AddItemInput
	}{
		{name: "missing product id", input: AddItemInput{UnitPrice: price("1.00"), Quantity: 1}},
		{name: "zero quantity", input: AddItemInput{ProductID: "P001", UnitPrice: price("1.00"), Quantity: 0}},
		{name: "negative quantity", input: AddItemInput{ProductID: "P001", UnitPrice: price("1.00"), Quantity: -2}},
		{name: "negative price", input: AddItemInput{ProductID: "P001", UnitPrice: price("-1.00"), Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, created.ID, tt.input)
			requireCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestItemLifecyclePersists(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P001", UnitPrice: price("49.99"), Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P002", UnitPrice: price("15.50"), Quantity: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateItemQuantity(ctx, created.ID, "P002", 3)
	require.NoError(t, err)
	require.Equal(t, 5, updated.ItemCount())

	// Every mutation goes through the store; reload and verify.
	loaded, err := svc.GetCart(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, loaded.Subtotal().Equal(price("146.48")), "subtotal=%s", loaded.Subtotal())

	removed, err := svc.RemoveItem(ctx, created.ID, "P001")
	require.NoError(t, err)
	require.Equal(t, 1, removed.UniqueItemCount())

	cleared, err := svc.ClearItems(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, cleared.Items())
}

func TestApplyPromotionThroughCatalog(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, activePercentage("SAVE20", 20, true))
	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P004", UnitPrice: price("100.00"), Quantity: 1})
	require.NoError(t, err)

	applied, err := svc.ApplyPromotion(ctx, created.ID, "SAVE20")
	require.NoError(t, err)
	require.True(t, applied.TotalDiscount().Equal(price("20")))
	require.True(t, applied.FinalTotal().Equal(price("80")))
}

func TestApplyPromotionRejectionPersistsReason(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, activePercentage("SAVE20", 20, true))
	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P005", UnitPrice: price("50.00"), Quantity: 1})
	require.NoError(t, err)

	_, err = svc.ApplyPromotion(ctx, created.ID, "INVALID123")
	requireCode(t, err, pkgerrors.CodeInvalidPromotion)

	// The rejection reason is persisted; promotion state and totals are not
	// touched.
	loaded, err := svc.GetCart(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.AppliedPromotions())
	require.True(t, loaded.FinalTotal().Equal(price("50.00")))
	require.Equal(t, []string{"the promotion code is invalid"}, loaded.RejectionReasons())

	// A later successful apply clears the stale reason.
	_, err = svc.ApplyPromotion(ctx, created.ID, "SAVE20")
	require.NoError(t, err)
	loaded, err = svc.GetCart(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.RejectionReasons())
}

func TestApplyPromotionBlankCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)

	_, err = svc.ApplyPromotion(ctx, created.ID, "   ")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestApplyPromotionCatalogFailure(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	svc, err := NewService(ServiceParams{
		Store:   store,
		Catalog: &stubCatalog{lookupErr: fmt.Errorf("connection refused")},
		Clock:   func() time.Time { return today },
	})
	require.NoError(t, err)

	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)

	_, err = svc.ApplyPromotion(ctx, created.ID, "SAVE20")
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestServiceRemovePromotion(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, activePercentage("SAVE20", 20, true))
	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P001", UnitPrice: price("100.00"), Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ApplyPromotion(ctx, created.ID, "SAVE20")
	require.NoError(t, err)

	removed, err := svc.RemovePromotion(ctx, created.ID, "SAVE20")
	require.NoError(t, err)
	require.Empty(t, removed.AppliedPromotions())

	_, err = svc.RemovePromotion(ctx, created.ID, "SAVE20")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, activePercentage("SAVE20", 20, true))
	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P008", UnitPrice: price("25.99"), Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P009", UnitPrice: price("15.50"), Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P010", UnitPrice: price("8.99"), Quantity: 3})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 6, summary.ItemCount)
	require.Equal(t, 3, summary.UniqueItemCount)
	require.True(t, summary.Subtotal.Equal(price("94.45")), "subtotal=%s", summary.Subtotal)
	require.True(t, summary.Tax.Equal(price("94.45").Mul(decimal.NewFromFloat(0.08))), "tax=%s", summary.Tax)
	require.True(t, summary.Total.Equal(summary.Subtotal.Add(summary.Tax)))

	// With a discount applied, tax is charged on the discounted base.
	_, err = svc.ApplyPromotion(ctx, created.ID, "SAVE20")
	require.NoError(t, err)
	summary, err = svc.Summary(ctx, created.ID)
	require.NoError(t, err)
	discounted := price("94.45").Sub(summary.DiscountAmount)
	require.True(t, summary.Tax.Equal(discounted.Mul(decimal.NewFromFloat(0.08))))
	require.True(t, summary.Total.Equal(discounted.Add(summary.Tax)))
}

func TestMutationSurfacesStoreFailure(t *testing.T) {
	t.Parallel()

	inner := NewMemoryStore()
	store := &failingStore{Store: inner}
	catalog := &stubCatalog{promos: map[string]*promotions.Promotion{}}
	svc, err := NewService(ServiceParams{
		Store:   store,
		Catalog: catalog,
		Clock:   func() time.Time { return today },
	})
	require.NoError(t, err)

	ctx := context.Background()
	created, err := svc.CreateCart(ctx, CreateCartInput{CustomerID: "customer-1"})
	require.NoError(t, err)

	store.saveErr = fmt.Errorf("redis: connection pool timeout")
	_, err = svc.AddItem(ctx, created.ID, AddItemInput{ProductID: "P001", UnitPrice: price("1.00"), Quantity: 1})
	requireCode(t, err, pkgerrors.CodeDependency)
}
