package dto

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	ShopID                  string          `json:"shop_id"                    validate:"required,uuid"`
	Name                    string          `json:"name"                       validate:"required,min=1,max=120"`
	SKU                     string          `json:"sku"                        validate:"required,max=64"`
	Price                   decimal.Decimal `json:"price"                      validate:"min=0"`
	InventoryQuantity       int             `json:"inventory_quantity"         validate:"min=0"`
	ExternalInventoryItemID *string         `json:"external_inventory_item_id" validate:"omitempty,max=64"`
}

type ProductFilter struct {
	ShopID string `form:"shop_id"`
	Name   string `form:"name"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductResponse struct {
	ID                      string          `json:"id"`
	ShopID                  string          `json:"shop_id"`
	Name                    string          `json:"name"`
	SKU                     string          `json:"sku"`
	Price                   decimal.Decimal `json:"price"`
	InventoryQuantity       int             `json:"inventory_quantity"`
	ExternalInventoryItemID *string         `json:"external_inventory_item_id"`
	Active                  bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ReconcileResponse reports a drift correction of the local inventory cache.
type ReconcileResponse struct {
	ProductID     string `json:"product_id"`
	LocalBefore   int    `json:"local_before"`
	ExternalValue int    `json:"external_value"`
	Corrected     bool   `json:"corrected"`
}
