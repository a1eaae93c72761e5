package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase order lifecycle: draft → ordered → received, or → cancelled.
// received and cancelled are terminal.
const (
	PurchaseOrderDraft     = "draft"
	PurchaseOrderOrdered   = "ordered"
	PurchaseOrderReceived  = "received"
	PurchaseOrderCancelled = "cancelled"
)

type PurchaseOrder struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PONumber    string          `gorm:"column:po_number;uniqueIndex;not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'draft';index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes       *string
	OrderedAt   *time.Time
	ReceivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items    []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
	Supplier *Supplier           `gorm:"foreignKey:SupplierID"`
}

// IsOpen reports whether the purchase order may still be received.
func (p *PurchaseOrder) IsOpen() bool {
	return p.Status == PurchaseOrderDraft || p.Status == PurchaseOrderOrdered
}

type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;index;not null"`
	MaterialID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Material *Material `gorm:"foreignKey:MaterialID"`
}
