package service

import (
	"context"
	"fmt"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AllocatorService debits every BOM material of a manufacturing run, all or nothing.
type AllocatorService interface {
	Allocate(ctx context.Context, productID uuid.UUID, quantity int, orderID *uuid.UUID) ([]uuid.UUID, error)
	// AllocateTx runs inside the caller's transaction; no retries.
	AllocateTx(tx *gorm.DB, productID uuid.UUID, quantity int, orderID *uuid.UUID) ([]uuid.UUID, error)
	AllocateRequest(ctx context.Context, productID uuid.UUID, req dto.AllocateRequest) (*dto.AllocationResponse, error)
}

type allocatorService struct {
	boms      repository.BOMRepository
	materials repository.MaterialRepository
	products  repository.ProductRepository
	ledger    LedgerService
	retries   int
}

func NewAllocatorService(
	boms repository.BOMRepository,
	materials repository.MaterialRepository,
	products repository.ProductRepository,
	ledger LedgerService,
	retries int,
) AllocatorService {
	return &allocatorService{boms: boms, materials: materials, products: products, ledger: ledger, retries: retries}
}

func (s *allocatorService) Allocate(ctx context.Context, productID uuid.UUID, quantity int, orderID *uuid.UUID) ([]uuid.UUID, error) {
	if quantity <= 0 {
		return nil, validationf("quantity must be greater than zero")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product", productID)
	}

	var ids []uuid.UUID
	err := withStockRetry(ctx, s.retries, func() error {
		return runTx(ctx, s.materials.DB(), func(tx *gorm.DB) error {
			var err error
			ids, err = s.AllocateTx(tx, productID, quantity, orderID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("product_id", productID.String()).
		Int("quantity", quantity).
		Int("entries", len(ids)).
		Msg("allocator: materials debited")
	return ids, nil
}

func (s *allocatorService) AllocateTx(tx *gorm.DB, productID uuid.UUID, quantity int, orderID *uuid.UUID) ([]uuid.UUID, error) {
	if quantity <= 0 {
		return nil, validationf("quantity must be greater than zero")
	}
	entries, err := listBOMTx(s.boms, tx, productID)
	if err != nil {
		return nil, err
	}

	materialIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		materialIDs = append(materialIDs, e.MaterialID)
	}
	locked, err := s.materials.FindByIDsForUpdateTx(tx, materialIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Material, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}

	qty := decimal.NewFromInt(int64(quantity))
	required := make(map[uuid.UUID]decimal.Decimal, len(entries))
	var shortfalls []dto.MaterialShortfall
	for _, e := range entries {
		m, ok := byID[e.MaterialID]
		if !ok {
			return nil, &NotFoundError{Entity: "material", ID: e.MaterialID}
		}
		need := e.QuantityPerUnit.Mul(qty)
		required[e.MaterialID] = need
		if m.CurrentStock.LessThan(need) {
			shortfalls = append(shortfalls, dto.MaterialShortfall{
				MaterialID:   m.ID.String(),
				MaterialName: m.Name,
				Required:     need,
				Available:    m.CurrentStock,
				Shortage:     need.Sub(m.CurrentStock),
			})
		}
	}
	if len(shortfalls) > 0 {
		return nil, &InsufficientMaterialsError{Shortfalls: shortfalls}
	}

	note := fmt.Sprintf("manufacturing run: %d unit(s) of product %s", quantity, productID)
	ids := make([]uuid.UUID, 0, len(entries))
	for _, m := range locked {
		need, ok := required[m.ID]
		if !ok {
			continue
		}
		t, err := s.ledger.RecordTx(tx, LedgerEntry{
			MaterialID: m.ID,
			Type:       model.TransactionOut,
			Quantity:   need,
			OrderID:    orderID,
			Notes:      &note,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (s *allocatorService) AllocateRequest(ctx context.Context, productID uuid.UUID, req dto.AllocateRequest) (*dto.AllocationResponse, error) {
	orderID, err := parseOptionalUUID(req.OrderID)
	if err != nil {
		return nil, err
	}
	ids, err := s.Allocate(ctx, productID, req.Quantity, orderID)
	if err != nil {
		return nil, err
	}
	resp := &dto.AllocationResponse{
		ProductID:      productID.String(),
		Quantity:       req.Quantity,
		TransactionIDs: make([]string, 0, len(ids)),
	}
	for _, id := range ids {
		resp.TransactionIDs = append(resp.TransactionIDs, id.String())
	}
	return resp, nil
}
