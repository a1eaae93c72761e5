package service

import (
	"context"
	"errors"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry is one requested stock movement.
type LedgerEntry struct {
	MaterialID      uuid.UUID
	Type            string // model.TransactionIn | model.TransactionOut
	Quantity        decimal.Decimal
	Date            time.Time // zero means now
	OrderID         *uuid.UUID
	PurchaseOrderID *uuid.UUID
	Notes           *string
}

// LedgerService is the only path that changes a material's current_stock.
type LedgerService interface {
	// Record appends the entry and moves stock in its own transaction,
	// retrying lock conflicts.
	Record(ctx context.Context, e LedgerEntry) (*model.MaterialTransaction, error)
	// RecordTx does the same inside the caller's transaction.
	RecordTx(tx *gorm.DB, e LedgerEntry) (*model.MaterialTransaction, error)
	Register(ctx context.Context, materialID uuid.UUID, req dto.RecordTransactionRequest) (*dto.MaterialTransactionResponse, error)
	List(ctx context.Context, materialID uuid.UUID, filter dto.TransactionFilter) (*dto.MaterialTransactionListResponse, error)
	// Verify recomputes Σin − Σout and compares it against current_stock.
	Verify(ctx context.Context, materialID uuid.UUID) (*dto.LedgerAuditResponse, error)
}

type ledgerService struct {
	materials repository.MaterialRepository
	ledger    repository.LedgerRepository
	retries   int
}

func NewLedgerService(materials repository.MaterialRepository, ledger repository.LedgerRepository, retries int) LedgerService {
	return &ledgerService{materials: materials, ledger: ledger, retries: retries}
}

func (s *ledgerService) Record(ctx context.Context, e LedgerEntry) (*model.MaterialTransaction, error) {
	var out *model.MaterialTransaction
	err := withStockRetry(ctx, s.retries, func() error {
		return runTx(ctx, s.materials.DB(), func(tx *gorm.DB) error {
			t, err := s.RecordTx(tx, e)
			out = t
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("material_id", out.MaterialID.String()).
		Str("type", out.Type).
		Str("quantity", out.Quantity.String()).
		Str("stock_after", out.StockAfter.String()).
		Msg("ledger: entry recorded")
	return out, nil
}

func (s *ledgerService) RecordTx(tx *gorm.DB, e LedgerEntry) (*model.MaterialTransaction, error) {
	if !model.IsValidTransactionType(e.Type) {
		return nil, validationf("transaction type must be %q or %q", model.TransactionIn, model.TransactionOut)
	}
	if !e.Quantity.IsPositive() {
		return nil, validationf("quantity must be greater than zero")
	}
	if !model.FitsQuantityScale(e.Quantity) {
		return nil, validationf("quantity allows at most %d decimal places", model.QuantityScale)
	}

	m, err := s.materials.FindByIDForUpdateTx(tx, e.MaterialID)
	if err != nil {
		return nil, notFound(err, "material", e.MaterialID)
	}

	t := &model.MaterialTransaction{
		MaterialID:      e.MaterialID,
		Type:            e.Type,
		Quantity:        e.Quantity,
		StockBefore:     m.CurrentStock,
		TransactionDate: e.Date,
		OrderID:         e.OrderID,
		PurchaseOrderID: e.PurchaseOrderID,
		Notes:           e.Notes,
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now()
	}
	t.StockAfter = m.CurrentStock.Add(t.Signed())
	if t.StockAfter.IsNegative() {
		return nil, &InsufficientStockError{MaterialID: m.ID, Requested: e.Quantity, Available: m.CurrentStock}
	}

	if err := s.ledger.AppendTx(tx, t); err != nil {
		if errors.Is(err, repository.ErrNegativeStock) {
			return nil, &InsufficientStockError{MaterialID: m.ID, Requested: e.Quantity, Available: m.CurrentStock}
		}
		return nil, err
	}
	return t, nil
}

func (s *ledgerService) Register(ctx context.Context, materialID uuid.UUID, req dto.RecordTransactionRequest) (*dto.MaterialTransactionResponse, error) {
	orderID, err := parseOptionalUUID(req.OrderID)
	if err != nil {
		return nil, err
	}
	e := LedgerEntry{
		MaterialID: materialID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		OrderID:    orderID,
		Notes:      req.Notes,
	}
	if req.Date != nil && *req.Date != "" {
		d, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, validationf("date must be YYYY-MM-DD")
		}
		e.Date = d
	}

	t, err := s.Record(ctx, e)
	if err != nil {
		return nil, err
	}
	resp := transactionToResponse(t)
	return &resp, nil
}

func (s *ledgerService) List(ctx context.Context, materialID uuid.UUID, filter dto.TransactionFilter) (*dto.MaterialTransactionListResponse, error) {
	if _, err := s.materials.FindByID(ctx, materialID); err != nil {
		return nil, notFound(err, "material", materialID)
	}
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit, repository.DefaultLedgerPageSize, repository.MaxLedgerPageSize)
	txs, total, err := s.ledger.List(ctx, materialID, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.MaterialTransactionListResponse{
		Data:  make([]dto.MaterialTransactionResponse, 0, len(txs)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range txs {
		resp.Data = append(resp.Data, transactionToResponse(&txs[i]))
	}
	return resp, nil
}

func (s *ledgerService) Verify(ctx context.Context, materialID uuid.UUID) (*dto.LedgerAuditResponse, error) {
	m, err := s.materials.FindByID(ctx, materialID)
	if err != nil {
		return nil, notFound(err, "material", materialID)
	}
	in, out, err := s.ledger.Totals(ctx, materialID)
	if err != nil {
		return nil, err
	}
	ledgerStock := in.Sub(out)
	return &dto.LedgerAuditResponse{
		MaterialID:   m.ID.String(),
		CurrentStock: m.CurrentStock,
		TotalIn:      in,
		TotalOut:     out,
		LedgerStock:  ledgerStock,
		Consistent:   ledgerStock.Equal(m.CurrentStock),
	}, nil
}
