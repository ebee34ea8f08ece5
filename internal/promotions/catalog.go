package promotions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailcart/cart-service/pkg/enums"
)

// ErrNotFound is returned by catalogs when a code does not resolve.
var ErrNotFound = errors.New("promotion not found")

// Catalog resolves a promotion code to its rule. Storage behind the lookup is
// an implementation detail: Postgres in production, memory in tests and
// DB-less dev runs.
type Catalog interface {
	Lookup(ctx context.Context, code string) (*Promotion, error)
	List(ctx context.Context) ([]*Promotion, error)
}

// MemoryCatalog is an in-process Catalog keyed by code.
type MemoryCatalog struct {
	mu         sync.RWMutex
	promotions map[string]*Promotion
	order      []string
}

// NewMemoryCatalog builds a catalog from the given promotions. Malformed
// entries are rejected immediately.
func NewMemoryCatalog(entries ...*Promotion) (*MemoryCatalog, error) {
	catalog := &MemoryCatalog{promotions: map[string]*Promotion{}}
	for _, entry := range entries {
		if err := catalog.Put(entry); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// Put inserts or replaces one promotion.
func (m *MemoryCatalog) Put(entry *Promotion) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.promotions[entry.Code]; !exists {
		m.order = append(m.order, entry.Code)
	}
	m.promotions[entry.Code] = entry
	return nil
}

// Lookup resolves a code, case-sensitively, or reports ErrNotFound.
func (m *MemoryCatalog) Lookup(ctx context.Context, code string) (*Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.promotions[strings.TrimSpace(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// List returns every promotion in insertion order.
func (m *MemoryCatalog) List(ctx context.Context) ([]*Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Promotion, 0, len(m.order))
	for _, code := range m.order {
		out = append(out, m.promotions[code])
	}
	return out, nil
}

// NewSeededCatalog builds the standard demo catalog with activation windows
// anchored to the given reference date. The set mirrors the seed migration.
func NewSeededCatalog(today time.Time) (*MemoryCatalog, error) {
	day := DateOnly(today)
	oneMonthAgo := day.AddDate(0, -1, 0)
	oneMonthLater := day.AddDate(0, 1, 0)
	oneWeekAgo := day.AddDate(0, 0, -7)
	oneWeekLater := day.AddDate(0, 0, 7)

	percentage := func(code, description string, value float64, start, end time.Time, combinable bool) *Promotion {
		return &Promotion{
			Code:        code,
			Description: description,
			Kind:        enums.DiscountKindPercentage,
			Value:       decimal.NewFromFloat(value),
			StartsOn:    start,
			EndsOn:      end,
			Combinable:  combinable,
		}
	}

	return NewMemoryCatalog(
		percentage("SAVE20", "Save 20% Storewide", 20, oneMonthAgo, oneMonthLater, true),
		percentage("SUMMER25", "Summer Collection 25% Off", 25, oneMonthAgo, oneMonthLater, true),
		percentage("SUMMER10", "Summer Special 10% Off", 10, oneMonthAgo, oneMonthLater, true),
		percentage("NEWCUSTOMER5", "New Customer 5% Off", 5, oneMonthAgo, oneMonthLater, true),
		percentage("SALE30", "Special Sale 30% Off", 30, oneMonthAgo, oneMonthLater, false),
		percentage("BUNDLE20", "Bundle Discount 20% Off", 20, oneMonthAgo, oneMonthLater, false),
		percentage("EXPIRED21", "Expired Promotion 21% Off", 21, oneMonthAgo, oneWeekAgo, true),
		percentage("SEASONAL22", "Upcoming Seasonal 22% Off", 22, oneWeekLater, oneMonthLater, true),
	)
}
