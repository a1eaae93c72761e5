package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	ShopID     string             `json:"shop_id"     validate:"required,uuid"`
	CustomerID string             `json:"customer_id" validate:"required,uuid"`
	Notes      *string            `json:"notes"       validate:"omitempty,max=1000"`
	Items      []OrderItemRequest `json:"items"       validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new manufacturing completed shipped"`
}

type OrderFilter struct {
	ShopID string `form:"shop_id"`
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID           string              `json:"id"`
	ShopID       string              `json:"shop_id"`
	CustomerID   string              `json:"customer_id"`
	CustomerName string              `json:"customer_name,omitempty"`
	OrderNumber  string              `json:"order_number"`
	Status       string              `json:"status"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Notes        *string             `json:"notes"`
	OrderedAt    string              `json:"ordered_at"`
	ShippedAt    *string             `json:"shipped_at"`
	Items        []OrderItemResponse `json:"items"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
