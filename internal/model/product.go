package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. InventoryQuantity is a local, advisory mirror of
// finished-goods stock; the external commerce platform owns the real count.
type Product struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShopID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name              string          `gorm:"index;not null"`
	SKU               string          `gorm:"column:sku;uniqueIndex;not null"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	InventoryQuantity int             `gorm:"not null;default:0"`
	// ExternalInventoryItemID maps the product to the system of record
	ExternalInventoryItemID *string `gorm:"index"`
	Active                  bool    `gorm:"not null;default:true"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
