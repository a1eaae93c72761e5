package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateMaterialRequest struct {
	ShopID       string           `json:"shop_id"       validate:"required,uuid"`
	Name         string           `json:"name"          validate:"required,min=1,max=120"`
	Code         *string          `json:"code"          validate:"omitempty,max=40"`
	Unit         string           `json:"unit"          validate:"required,max=20"`
	InitialStock decimal.Decimal  `json:"initial_stock" validate:"min=0"`
	SafetyStock  decimal.Decimal  `json:"safety_stock"  validate:"min=0"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
}

// UpdateMaterialRequest never carries stock: stock only moves through the ledger.
type UpdateMaterialRequest struct {
	Name        *string          `json:"name"         validate:"omitempty,min=1,max=120"`
	Code        *string          `json:"code"         validate:"omitempty,max=40"`
	Unit        *string          `json:"unit"         validate:"omitempty,max=20"`
	SafetyStock *decimal.Decimal `json:"safety_stock"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type RecordTransactionRequest struct {
	Type     string          `json:"type"     validate:"required,oneof=in out"`
	Quantity decimal.Decimal `json:"quantity" validate:"required,gt=0"`
	OrderID  *string         `json:"order_id" validate:"omitempty,uuid"`
	Notes    *string         `json:"notes"    validate:"omitempty,max=500"`
	// Date defaults to now; format YYYY-MM-DD
	Date *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type MaterialFilter struct {
	ShopID string `form:"shop_id"`
	Name   string `form:"name"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type TransactionFilter struct {
	Type    string `form:"type"`
	OrderID string `form:"order_id"`
	Page    int    `form:"page,default=1"    validate:"min=1"`
	Limit   int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MaterialResponse struct {
	ID           string           `json:"id"`
	ShopID       string           `json:"shop_id"`
	Name         string           `json:"name"`
	Code         *string          `json:"code"`
	Unit         string           `json:"unit"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	SafetyStock  decimal.Decimal  `json:"safety_stock"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	LowStock     bool             `json:"low_stock"`
}

type MaterialListResponse struct {
	Data  []MaterialResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type MaterialTransactionResponse struct {
	ID              string          `json:"id"`
	MaterialID      string          `json:"material_id"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	StockBefore     decimal.Decimal `json:"stock_before"`
	StockAfter      decimal.Decimal `json:"stock_after"`
	TransactionDate string          `json:"transaction_date"`
	OrderID         *string         `json:"order_id,omitempty"`
	PurchaseOrderID *string         `json:"purchase_order_id,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type MaterialTransactionListResponse struct {
	Data  []MaterialTransactionResponse `json:"data"`
	Total int64                         `json:"total"`
	Page  int                           `json:"page"`
	Limit int                           `json:"limit"`
}

// LowStockAlert is returned for every material at or below its safety stock.
type LowStockAlert struct {
	MaterialID   string          `json:"material_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	SafetyStock  decimal.Decimal `json:"safety_stock"`
	Deficit      decimal.Decimal `json:"deficit"`
}

// LedgerAuditResponse compares the cached stock against the ledger sum.
type LedgerAuditResponse struct {
	MaterialID   string          `json:"material_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	TotalIn      decimal.Decimal `json:"total_in"`
	TotalOut     decimal.Decimal `json:"total_out"`
	LedgerStock  decimal.Decimal `json:"ledger_stock"`
	Consistent   bool            `json:"consistent"`
}

// PriceHistoryResponse is one unit-price change of a material.
type PriceHistoryResponse struct {
	PriceBefore     *decimal.Decimal `json:"price_before"`
	PriceAfter      decimal.Decimal  `json:"price_after"`
	Reason          string           `json:"reason"`
	SupplierName    string           `json:"supplier_name,omitempty"`
	PurchaseOrderID *string          `json:"purchase_order_id,omitempty"`
	ChangedAt       string           `json:"changed_at"`
}
