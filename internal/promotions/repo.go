package promotions

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/retailcart/cart-service/pkg/db/models"
)

// Repository is the Postgres-backed Catalog.
type Repository struct {
	conn *gorm.DB
}

// NewRepository wires the catalog to a GORM connection.
func NewRepository(conn *gorm.DB) (*Repository, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection required")
	}
	return &Repository{conn: conn}, nil
}

// Lookup resolves one promotion by code.
func (r *Repository) Lookup(ctx context.Context, code string) (*Promotion, error) {
	var record models.Promotion
	err := r.conn.WithContext(ctx).First(&record, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup promotion %s: %w", code, err)
	}
	return fromRecord(&record)
}

// List returns the full catalog ordered by code.
func (r *Repository) List(ctx context.Context) ([]*Promotion, error) {
	var records []models.Promotion
	if err := r.conn.WithContext(ctx).Order("code").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	out := make([]*Promotion, 0, len(records))
	for i := range records {
		entry, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// Save upserts one catalog entry. Used by seeds and tests.
func (r *Repository) Save(ctx context.Context, entry *Promotion) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	record := toRecord(entry)
	return r.conn.WithContext(ctx).Save(record).Error
}

func fromRecord(record *models.Promotion) (*Promotion, error) {
	entry := &Promotion{
		Code:              record.Code,
		Description:       record.Description,
		Kind:              record.DiscountKind,
		Value:             record.DiscountValue,
		StartsOn:          record.ActivationStart,
		EndsOn:            record.ActivationEnd,
		Combinable:        record.Combinable,
		IncompatibleCodes: []string(record.IncompatibleCodes),
	}
	// A stored record that fails validation is corrupt data, not a business
	// rejection; surface it loudly instead of letting it reach a cart.
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt promotion record: %w", err)
	}
	return entry, nil
}

func toRecord(entry *Promotion) *models.Promotion {
	return &models.Promotion{
		Code:              entry.Code,
		Description:       entry.Description,
		DiscountKind:      entry.Kind,
		DiscountValue:     entry.Value,
		ActivationStart:   DateOnly(entry.StartsOn),
		ActivationEnd:     DateOnly(entry.EndsOn),
		Combinable:        entry.Combinable,
		IncompatibleCodes: pq.StringArray(entry.IncompatibleCodes),
	}
}
