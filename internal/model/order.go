package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order lifecycle. Status only moves forward along this list.
const (
	OrderStatusNew           = "new"
	OrderStatusManufacturing = "manufacturing"
	OrderStatusCompleted     = "completed"
	OrderStatusShipped       = "shipped"
)

var orderStatusRank = map[string]int{
	OrderStatusNew:           0,
	OrderStatusManufacturing: 1,
	OrderStatusCompleted:     2,
	OrderStatusShipped:       3,
}

// OrderStatusRank returns the position of status in the lifecycle and false
// when status is unknown.
func OrderStatusRank(status string) (int, bool) {
	r, ok := orderStatusRank[status]
	return r, ok
}

// Order is a customer purchase request. Status is mutated exclusively by
// OrderService.SetStatus; ShippedAt is stamped once, on first entry into "shipped".
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderNumber string          `gorm:"uniqueIndex;not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'new';index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes       *string
	OrderedAt   time.Time `gorm:"not null"`
	ShippedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items    []OrderItem `gorm:"foreignKey:OrderID"`
	Customer *Customer   `gorm:"foreignKey:CustomerID"`
}

// OrderItem is an immutable snapshot of a product at order time. Name and SKU
// are denormalized so later catalog edits do not rewrite history.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductName string          `gorm:"not null"`
	SKU         string          `gorm:"column:sku;not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
}
