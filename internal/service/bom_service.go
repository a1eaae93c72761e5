package service

import (
	"context"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type BOMService interface {
	SetEntry(ctx context.Context, productID uuid.UUID, req dto.SetBOMEntryRequest) (*dto.BOMEntryResponse, error)
	RemoveEntry(ctx context.Context, id uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]dto.BOMEntryResponse, error)
	Cost(ctx context.Context, productID uuid.UUID) (*dto.CostResponse, error)
	MaxProducible(ctx context.Context, productID uuid.UUID) (*dto.ProducibilityResponse, error)
}

type bomService struct {
	boms      repository.BOMRepository
	products  repository.ProductRepository
	materials repository.MaterialRepository
}

func NewBOMService(boms repository.BOMRepository, products repository.ProductRepository, materials repository.MaterialRepository) BOMService {
	return &bomService{boms: boms, products: products, materials: materials}
}

func (s *bomService) SetEntry(ctx context.Context, productID uuid.UUID, req dto.SetBOMEntryRequest) (*dto.BOMEntryResponse, error) {
	if !req.QuantityPerUnit.IsPositive() {
		return nil, validationf("quantity_per_unit must be greater than zero")
	}
	if !model.FitsQuantityScale(req.QuantityPerUnit) {
		return nil, validationf("quantity_per_unit allows at most %d decimal places", model.QuantityScale)
	}
	materialID, err := uuid.Parse(req.MaterialID)
	if err != nil {
		return nil, validationf("invalid material_id")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product", productID)
	}
	m, err := s.materials.FindByID(ctx, materialID)
	if err != nil {
		return nil, notFound(err, "material", materialID)
	}

	e := &model.BOMEntry{ProductID: productID, MaterialID: materialID, QuantityPerUnit: req.QuantityPerUnit}
	if err := s.boms.Upsert(ctx, e); err != nil {
		return nil, err
	}
	e.Material = m
	resp := bomEntryToResponse(e)
	return &resp, nil
}

func (s *bomService) RemoveEntry(ctx context.Context, id uuid.UUID) error {
	return notFound(s.boms.Delete(ctx, id), "bom entry", id)
}

func (s *bomService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]dto.BOMEntryResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product", productID)
	}
	entries, err := s.boms.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BOMEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, bomEntryToResponse(&entries[i]))
	}
	return out, nil
}

func (s *bomService) Cost(ctx context.Context, productID uuid.UUID) (*dto.CostResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product", productID)
	}
	entries, err := s.boms.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := computeCost(p.Price, entries)
	resp.ProductID = productID.String()
	return resp, nil
}

func (s *bomService) MaxProducible(ctx context.Context, productID uuid.UUID) (*dto.ProducibilityResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product", productID)
	}
	entries, err := s.boms.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := computeProducibility(entries)
	resp.ProductID = productID.String()
	return resp, nil
}

// computeCost prices one unit of product from its BOM. A material without a
// unit price contributes zero.
func computeCost(price decimal.Decimal, entries []model.BOMEntry) *dto.CostResponse {
	resp := &dto.CostResponse{
		ManufacturingCost: decimal.Zero,
		SellingPrice:      price,
		Lines:             make([]dto.CostLine, 0, len(entries)),
	}
	for _, e := range entries {
		unitPrice := decimal.Zero
		name := ""
		if e.Material != nil {
			name = e.Material.Name
			if e.Material.UnitPrice != nil {
				unitPrice = *e.Material.UnitPrice
			}
		}
		cost := unitPrice.Mul(e.QuantityPerUnit)
		resp.ManufacturingCost = resp.ManufacturingCost.Add(cost)
		resp.Lines = append(resp.Lines, dto.CostLine{
			MaterialID:      e.MaterialID.String(),
			MaterialName:    name,
			QuantityPerUnit: e.QuantityPerUnit,
			UnitPrice:       unitPrice,
			Cost:            cost,
		})
	}
	resp.GrossProfit = price.Sub(resp.ManufacturingCost)
	resp.GrossProfitRate = decimal.Zero
	if !price.IsZero() {
		resp.GrossProfitRate = resp.GrossProfit.Div(price).Mul(hundred).Round(1)
	}
	return resp
}

// computeProducibility returns floor(stock / qty_per_unit) per material and
// the minimum over all of them. An empty BOM is reported as not configured,
// which is different from being able to produce zero units.
func computeProducibility(entries []model.BOMEntry) *dto.ProducibilityResponse {
	resp := &dto.ProducibilityResponse{Details: make([]dto.MaterialProducibility, 0, len(entries))}
	if len(entries) == 0 {
		return resp
	}
	resp.Configured = true

	var minQty int64 = -1
	for _, e := range entries {
		stock := decimal.Zero
		d := dto.MaterialProducibility{MaterialID: e.MaterialID.String(), QuantityPerUnit: e.QuantityPerUnit}
		if e.Material != nil {
			stock = e.Material.CurrentStock
			d.MaterialName = e.Material.Name
			d.Unit = e.Material.Unit
		}
		d.CurrentStock = stock
		d.Producible = stock.Div(e.QuantityPerUnit).Floor().IntPart()
		resp.Details = append(resp.Details, d)
		if minQty < 0 || d.Producible < minQty {
			minQty = d.Producible
		}
	}
	resp.Quantity = &minQty
	return resp
}

func bomEntryToResponse(e *model.BOMEntry) dto.BOMEntryResponse {
	resp := dto.BOMEntryResponse{
		ID:              e.ID.String(),
		ProductID:       e.ProductID.String(),
		MaterialID:      e.MaterialID.String(),
		QuantityPerUnit: e.QuantityPerUnit,
	}
	if e.Material != nil {
		resp.MaterialName = e.Material.Name
		resp.Unit = e.Material.Unit
	}
	return resp
}

// listBOMTx loads a product's BOM inside tx, failing with ErrBOMNotConfigured when empty.
func listBOMTx(boms repository.BOMRepository, tx *gorm.DB, productID uuid.UUID) ([]model.BOMEntry, error) {
	entries, err := boms.ListByProductTx(tx, productID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrBOMNotConfigured
	}
	return entries, nil
}

