package dto

import "github.com/shopspring/decimal"

type PurchaseOrderItemRequest struct {
	MaterialID string          `json:"material_id" validate:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity"    validate:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price"  validate:"min=0"`
}

type CreatePurchaseOrderRequest struct {
	ShopID     string                     `json:"shop_id"     validate:"required,uuid"`
	SupplierID string                     `json:"supplier_id" validate:"required,uuid"`
	Notes      *string                    `json:"notes"       validate:"omitempty,max=1000"`
	Items      []PurchaseOrderItemRequest `json:"items"       validate:"required,min=1,dive"`
}

type UpdatePurchaseOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ordered received cancelled"`
}

type PurchaseOrderItemResponse struct {
	MaterialID string          `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type PurchaseOrderResponse struct {
	ID          string                      `json:"id"`
	ShopID      string                      `json:"shop_id"`
	SupplierID  string                      `json:"supplier_id"`
	PONumber    string                      `json:"po_number"`
	Status      string                      `json:"status"`
	TotalAmount decimal.Decimal             `json:"total_amount"`
	Notes       *string                     `json:"notes"`
	OrderedAt   *string                     `json:"ordered_at"`
	ReceivedAt  *string                     `json:"received_at"`
	Items       []PurchaseOrderItemResponse `json:"items"`
}
