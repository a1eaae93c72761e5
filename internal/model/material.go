package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityScale is the number of decimal places kept by every stock, ledger
// and BOM quantity column. Values with more places would be rounded by
// Postgres column by column and break Σin − Σout = current_stock.
const QuantityScale = 4

// FitsQuantityScale reports whether d is stored without rounding.
func FitsQuantityScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(QuantityScale))
}

// Material is a raw good tracked by the shop.
//
// CurrentStock is a materialized view of the ledger: it is only moved by
// LedgerRepository.AppendTx, which writes the matching MaterialTransaction in
// the same statement batch. The "<-:create" permission keeps Save/Updates from
// ever overwriting it.
type Material struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShopID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name         string           `gorm:"not null"`
	Code         *string          `gorm:"index"`
	Unit         string           `gorm:"not null;default:'unit'"`
	CurrentStock decimal.Decimal  `gorm:"<-:create;type:decimal(14,4);not null;default:0"`
	SafetyStock  decimal.Decimal  `gorm:"type:decimal(14,4);not null;default:0"`
	UnitPrice    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BelowSafetyStock reports whether the material should raise a low-stock alert.
func (m *Material) BelowSafetyStock() bool {
	return m.CurrentStock.LessThanOrEqual(m.SafetyStock)
}
