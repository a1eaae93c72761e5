package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMEntry states how much of a material one unit of a product consumes.
// At most one entry exists per (product, material) pair.
type BOMEntry struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID       uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_bom_product_material;not null"`
	MaterialID      uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_bom_product_material;not null;index"`
	QuantityPerUnit decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Product  *Product  `gorm:"foreignKey:ProductID"`
	Material *Material `gorm:"foreignKey:MaterialID"`
}

// TableName overrides GORM's default pluralization (b_o_m_entries → bom_entries).
func (BOMEntry) TableName() string { return "bom_entries" }
