package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCatalogLookup(t *testing.T) {
	t.Parallel()

	catalog, err := NewMemoryCatalog(
		percentagePromo("SAVE20", 20, true),
		percentagePromo("SALE30", 30, false),
	)
	require.NoError(t, err)

	entry, err := catalog.Lookup(context.Background(), "SAVE20")
	require.NoError(t, err)
	require.Equal(t, "SAVE20", entry.Code)

	_, err = catalog.Lookup(context.Background(), "INVALID123")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCatalogRejectsMalformedEntries(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryCatalog(percentagePromo("BIG", 150, true))
	require.Error(t, err)
}

func TestMemoryCatalogPutUpsertsByCode(t *testing.T) {
	t.Parallel()

	catalog, err := NewMemoryCatalog(percentagePromo("SAVE20", 20, true))
	require.NoError(t, err)

	replacement := percentagePromo("SAVE20", 25, true)
	require.NoError(t, catalog.Put(replacement))

	entry, err := catalog.Lookup(context.Background(), "SAVE20")
	require.NoError(t, err)
	require.True(t, entry.Value.Equal(replacement.Value))

	listed, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestSeededCatalogWindows(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, time.June, 15, 10, 30, 0, 0, time.UTC)
	catalog, err := NewSeededCatalog(today)
	require.NoError(t, err)

	tests := []struct {
		code       string
		active     bool
		combinable bool
	}{
		{code: "SAVE20", active: true, combinable: true},
		{code: "SUMMER25", active: true, combinable: true},
		{code: "SUMMER10", active: true, combinable: true},
		{code: "NEWCUSTOMER5", active: true, combinable: true},
		{code: "SALE30", active: true, combinable: false},
		{code: "BUNDLE20", active: true, combinable: false},
		{code: "EXPIRED21", active: false, combinable: true},
		{code: "SEASONAL22", active: false, combinable: true},
	}

	for _, tt := range tests {
		entry, err := catalog.Lookup(context.Background(), tt.code)
		require.NoError(t, err, tt.code)
		require.Equal(t, tt.active, entry.ActiveOn(today), tt.code)
		require.Equal(t, tt.combinable, entry.Combinable, tt.code)
	}

	// EXPIRED21 ended a week before the reference date, SEASONAL22 starts a
	// week after it.
	expired, _ := catalog.Lookup(context.Background(), "EXPIRED21")
	require.True(t, DateOnly(today).After(DateOnly(expired.EndsOn)))
	upcoming, _ := catalog.Lookup(context.Background(), "SEASONAL22")
	require.True(t, DateOnly(today).Before(DateOnly(upcoming.StartsOn)))
}
