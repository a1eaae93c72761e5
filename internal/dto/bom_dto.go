package dto

import "github.com/shopspring/decimal"

type SetBOMEntryRequest struct {
	MaterialID      string          `json:"material_id"       validate:"required,uuid"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" validate:"required,gt=0"`
}

type BOMEntryResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	MaterialID      string          `json:"material_id"`
	MaterialName    string          `json:"material_name"`
	Unit            string          `json:"unit"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// CostLine is the contribution of one BOM material to the manufacturing cost.
type CostLine struct {
	MaterialID      string          `json:"material_id"`
	MaterialName    string          `json:"material_name"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Cost            decimal.Decimal `json:"cost"`
}

type CostResponse struct {
	ProductID         string          `json:"product_id"`
	ManufacturingCost decimal.Decimal `json:"manufacturing_cost"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	// GrossProfitRate is a percentage rounded to one decimal place
	GrossProfitRate decimal.Decimal `json:"gross_profit_rate"`
	Lines           []CostLine      `json:"lines"`
}

type MaterialProducibility struct {
	MaterialID      string          `json:"material_id"`
	MaterialName    string          `json:"material_name"`
	Unit            string          `json:"unit"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	Producible      int64           `json:"producible"`
}

// ProducibilityResponse distinguishes "not configured" (Configured=false,
// Quantity=nil) from "cannot produce" (Configured=true, Quantity=0).
type ProducibilityResponse struct {
	ProductID  string                  `json:"product_id"`
	Configured bool                    `json:"configured"`
	Quantity   *int64                  `json:"quantity"`
	Details    []MaterialProducibility `json:"details"`
}

type AllocateRequest struct {
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	OrderID  *string `json:"order_id" validate:"omitempty,uuid"`
}

type AllocationResponse struct {
	ProductID      string   `json:"product_id"`
	Quantity       int      `json:"quantity"`
	TransactionIDs []string `json:"transaction_ids"`
}

// MaterialShortfall is one entry of an InsufficientMaterials failure.
type MaterialShortfall struct {
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Shortage     decimal.Decimal `json:"shortage"`
}
