package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/retailcart/cart-service/pkg/enums"
)

// Promotion persists one catalog entry. The discount value is a percentage in
// [0,100] for percentage promotions and a monetary amount for fixed ones.
type Promotion struct {
	Code              string             `gorm:"column:code;primaryKey"`
	Description       string             `gorm:"column:description;not null"`
	DiscountKind      enums.DiscountKind `gorm:"column:discount_kind;not null"`
	DiscountValue     decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,4);not null"`
	ActivationStart   time.Time          `gorm:"column:activation_start;type:date;not null"`
	ActivationEnd     time.Time          `gorm:"column:activation_end;type:date;not null"`
	Combinable        bool               `gorm:"column:combinable;not null;default:false"`
	IncompatibleCodes pq.StringArray     `gorm:"column:incompatible_codes;type:text[]"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
