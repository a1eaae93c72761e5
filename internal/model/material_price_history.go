package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialPriceHistory records every unit-price change of a material.
// Rows are immutable and never deleted.
type MaterialPriceHistory struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MaterialID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	SupplierID      *uuid.UUID       `gorm:"type:uuid;index"`
	PurchaseOrderID *uuid.UUID       `gorm:"type:uuid"`
	PriceBefore     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PriceAfter      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Reason          string           `gorm:"not null;default:'purchase_receipt'"` // purchase_receipt | manual
	CreatedAt       time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

// TableName keeps the history table name singular-by-concept.
func (MaterialPriceHistory) TableName() string { return "material_price_history" }
