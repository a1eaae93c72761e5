package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionIn  = "in"
	TransactionOut = "out"
)

// MaterialTransaction is an immutable ledger entry. Quantity is always
// positive; Type carries the sign. Entries are never updated or deleted, a
// correction is a new entry in the opposite direction.
type MaterialTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MaterialID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type            string          `gorm:"type:varchar(3);not null"` // "in" | "out"
	Quantity        decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	StockBefore     decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	StockAfter      decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	TransactionDate time.Time       `gorm:"not null"`
	// OrderID links an "out" entry to the order whose manufacturing run consumed it
	OrderID         *uuid.UUID `gorm:"type:uuid;index"`
	PurchaseOrderID *uuid.UUID `gorm:"type:uuid;index"`
	Notes           *string
	CreatedAt       time.Time

	Material *Material `gorm:"foreignKey:MaterialID"`
}

// Signed returns the quantity with the sign implied by Type.
func (t *MaterialTransaction) Signed() decimal.Decimal {
	if t.Type == TransactionOut {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

func IsValidTransactionType(tipo string) bool {
	return tipo == TransactionIn || tipo == TransactionOut
}
