package service

import (
	"context"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type MaterialService interface {
	Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error)
	List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	LowStockAlerts(ctx context.Context, shopID *uuid.UUID) ([]dto.LowStockAlert, error)
	PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]dto.PriceHistoryResponse, error)
}

type materialService struct {
	repo   repository.MaterialRepository
	prices repository.PriceHistoryRepository
	ledger LedgerService
}

func NewMaterialService(repo repository.MaterialRepository, prices repository.PriceHistoryRepository, ledger LedgerService) MaterialService {
	return &materialService{repo: repo, prices: prices, ledger: ledger}
}

// Create books a non-zero initial stock as the first ledger entry so the
// ledger sum matches current_stock from the start.
func (s *materialService) Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return nil, validationf("invalid shop_id")
	}
	if req.InitialStock.IsNegative() || req.SafetyStock.IsNegative() {
		return nil, validationf("stock values cannot be negative")
	}
	if !model.FitsQuantityScale(req.InitialStock) || !model.FitsQuantityScale(req.SafetyStock) {
		return nil, validationf("stock values allow at most %d decimal places", model.QuantityScale)
	}

	m := &model.Material{
		ShopID:      shopID,
		Name:        req.Name,
		Code:        req.Code,
		Unit:        req.Unit,
		SafetyStock: req.SafetyStock,
		UnitPrice:   req.UnitPrice,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, m); err != nil {
			return err
		}
		if !req.InitialStock.IsPositive() {
			return nil
		}
		note := "initial stock"
		t, err := s.ledger.RecordTx(tx, LedgerEntry{
			MaterialID: m.ID,
			Type:       model.TransactionIn,
			Quantity:   req.InitialStock,
			Notes:      &note,
		})
		if err != nil {
			return err
		}
		m.CurrentStock = t.StockAfter
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("material_id", m.ID.String()).Str("name", m.Name).Msg("material created")
	return materialToResponse(m), nil
}

func (s *materialService) Get(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "material", id)
	}
	return materialToResponse(m), nil
}

func (s *materialService) List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error) {
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit, repository.DefaultPageSize, repository.MaxPageSize)
	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.MaterialListResponse{
		Data:  make([]dto.MaterialResponse, 0, len(materials)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range materials {
		resp.Data = append(resp.Data, *materialToResponse(&materials[i]))
	}
	return resp, nil
}

func (s *materialService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	// Only the columns present in the request are written, so a concurrent
	// purchase-order receipt keeps its unit price unless this call sets one.
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Code != nil {
		fields["code"] = *req.Code
	}
	if req.Unit != nil {
		fields["unit"] = *req.Unit
	}
	if req.SafetyStock != nil {
		if req.SafetyStock.IsNegative() {
			return nil, validationf("safety_stock cannot be negative")
		}
		if !model.FitsQuantityScale(*req.SafetyStock) {
			return nil, validationf("safety_stock allows at most %d decimal places", model.QuantityScale)
		}
		fields["safety_stock"] = *req.SafetyStock
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, validationf("unit_price cannot be negative")
		}
		fields["unit_price"] = *req.UnitPrice
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, "material", id)
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, notFound(err, "material", id)
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "material", id)
	}
	return materialToResponse(m), nil
}

func (s *materialService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, "material", id)
	}
	bomRefs, poRefs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if bomRefs > 0 || poRefs > 0 {
		return ErrMaterialInUse
	}
	return s.repo.Delete(ctx, id)
}

func (s *materialService) LowStockAlerts(ctx context.Context, shopID *uuid.UUID) ([]dto.LowStockAlert, error) {
	materials, err := s.repo.ListLowStock(ctx, shopID)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlert, 0, len(materials))
	for _, m := range materials {
		alerts = append(alerts, dto.LowStockAlert{
			MaterialID:   m.ID.String(),
			Name:         m.Name,
			Unit:         m.Unit,
			CurrentStock: m.CurrentStock,
			SafetyStock:  m.SafetyStock,
			Deficit:      m.SafetyStock.Sub(m.CurrentStock),
		})
	}
	return alerts, nil
}

func (s *materialService) PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]dto.PriceHistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, "material", id)
	}
	rows, err := s.prices.ListByMaterial(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PriceHistoryResponse, 0, len(rows))
	for _, h := range rows {
		r := dto.PriceHistoryResponse{
			PriceBefore:     h.PriceBefore,
			PriceAfter:      h.PriceAfter,
			Reason:          h.Reason,
			PurchaseOrderID: uuidPtrString(h.PurchaseOrderID),
			ChangedAt:       h.CreatedAt.Format(dateTimeLayout),
		}
		if h.Supplier != nil {
			r.SupplierName = h.Supplier.Name
		}
		out = append(out, r)
	}
	return out, nil
}
