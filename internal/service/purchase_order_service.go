package service

import (
	"context"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseOrderService interface {
	Create(ctx context.Context, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error)
	// SetStatus moves draft → ordered → received, or draft/ordered → cancelled.
	// Receiving books an "in" ledger entry per line and adopts the line price
	// as the material's unit price.
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*dto.PurchaseOrderResponse, error)
}

type purchaseOrderService struct {
	pos       repository.PurchaseOrderRepository
	suppliers repository.SupplierRepository
	materials repository.MaterialRepository
	prices    repository.PriceHistoryRepository
	ledger    LedgerService
	retries   int
}

func NewPurchaseOrderService(
	pos repository.PurchaseOrderRepository,
	suppliers repository.SupplierRepository,
	materials repository.MaterialRepository,
	prices repository.PriceHistoryRepository,
	ledger LedgerService,
	retries int,
) PurchaseOrderService {
	return &purchaseOrderService{pos: pos, suppliers: suppliers, materials: materials, prices: prices, ledger: ledger, retries: retries}
}

func (s *purchaseOrderService) Create(ctx context.Context, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return nil, validationf("invalid shop_id")
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, validationf("invalid supplier_id")
	}
	if len(req.Items) == 0 {
		return nil, validationf("purchase order needs at least one item")
	}
	if _, err := s.suppliers.FindByID(ctx, supplierID); err != nil {
		return nil, notFound(err, "supplier", supplierID)
	}

	po := model.PurchaseOrder{
		ShopID:      shopID,
		SupplierID:  supplierID,
		Status:      model.PurchaseOrderDraft,
		TotalAmount: decimal.Zero,
		Notes:       req.Notes,
	}
	for _, it := range req.Items {
		materialID, err := uuid.Parse(it.MaterialID)
		if err != nil {
			return nil, validationf("invalid material_id %q", it.MaterialID)
		}
		if !it.Quantity.IsPositive() {
			return nil, validationf("item quantity must be greater than zero")
		}
		if !model.FitsQuantityScale(it.Quantity) {
			return nil, validationf("item quantity allows at most %d decimal places", model.QuantityScale)
		}
		if it.UnitPrice.IsNegative() {
			return nil, validationf("unit price cannot be negative")
		}
		if _, err := s.materials.FindByID(ctx, materialID); err != nil {
			return nil, notFound(err, "material", materialID)
		}
		subtotal := it.Quantity.Mul(it.UnitPrice).Round(2)
		po.TotalAmount = po.TotalAmount.Add(subtotal)
		po.Items = append(po.Items, model.PurchaseOrderItem{
			MaterialID: materialID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Subtotal:   subtotal,
		})
	}

	err = runTx(ctx, s.pos.DB(), func(tx *gorm.DB) error {
		number, err := s.pos.NextPONumberTx(tx)
		if err != nil {
			return err
		}
		po.PONumber = number
		return s.pos.CreateTx(tx, &po)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("po_number", po.PONumber).Str("total", po.TotalAmount.String()).Msg("purchase order created")
	return purchaseOrderToResponse(&po), nil
}

func (s *purchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	po, err := s.pos.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "purchase order", id)
	}
	return purchaseOrderToResponse(po), nil
}

func checkPOTransition(from, to string) error {
	switch {
	case from == model.PurchaseOrderReceived || from == model.PurchaseOrderCancelled:
		return &TransitionError{From: from, To: to}
	case to == model.PurchaseOrderOrdered && from != model.PurchaseOrderDraft:
		return &TransitionError{From: from, To: to}
	case to == model.PurchaseOrderReceived, to == model.PurchaseOrderCancelled, to == model.PurchaseOrderOrdered:
		return nil
	}
	return &TransitionError{From: from, To: to}
}

func (s *purchaseOrderService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*dto.PurchaseOrderResponse, error) {
	switch status {
	case model.PurchaseOrderOrdered, model.PurchaseOrderReceived, model.PurchaseOrderCancelled:
	default:
		return nil, validationf("unknown purchase order status %q", status)
	}

	var po *model.PurchaseOrder
	err := withStockRetry(ctx, s.retries, func() error {
		return runTx(ctx, s.pos.DB(), func(tx *gorm.DB) error {
			p, err := s.pos.FindByIDForUpdateTx(tx, id)
			if err != nil {
				return notFound(err, "purchase order", id)
			}
			po = p
			if p.Status == status && p.IsOpen() {
				return nil
			}
			if err := checkPOTransition(p.Status, status); err != nil {
				return err
			}

			now := time.Now()
			switch status {
			case model.PurchaseOrderOrdered:
				p.OrderedAt = &now
			case model.PurchaseOrderReceived:
				if p.OrderedAt == nil {
					p.OrderedAt = &now
				}
				p.ReceivedAt = &now
				if err := s.receiveTx(tx, p); err != nil {
					return err
				}
			}
			p.Status = status
			return s.pos.UpdateStatusTx(tx, p)
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("po_number", po.PONumber).Str("status", po.Status).Msg("purchase order status changed")
	return purchaseOrderToResponse(po), nil
}

func (s *purchaseOrderService) receiveTx(tx *gorm.DB, po *model.PurchaseOrder) error {
	note := "purchase receipt " + po.PONumber
	supplierID := po.SupplierID
	for _, it := range po.Items {
		if _, err := s.ledger.RecordTx(tx, LedgerEntry{
			MaterialID:      it.MaterialID,
			Type:            model.TransactionIn,
			Quantity:        it.Quantity,
			PurchaseOrderID: &po.ID,
			Notes:           &note,
		}); err != nil {
			return err
		}

		m, err := s.materials.FindByIDForUpdateTx(tx, it.MaterialID)
		if err != nil {
			return notFound(err, "material", it.MaterialID)
		}
		if err := s.materials.UpdateUnitPriceTx(tx, it.MaterialID, it.UnitPrice); err != nil {
			return err
		}
		if err := s.prices.CreateTx(tx, &model.MaterialPriceHistory{
			MaterialID:      it.MaterialID,
			SupplierID:      &supplierID,
			PurchaseOrderID: &po.ID,
			PriceBefore:     m.UnitPrice,
			PriceAfter:      it.UnitPrice,
			Reason:          "purchase_receipt",
		}); err != nil {
			return err
		}
	}
	return nil
}
