package repository

import (
	"context"
	"errors"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNegativeStock is returned by AppendTx when the guarded update matched no
// row, i.e. applying the entry would leave current_stock below zero.
var ErrNegativeStock = errors.New("ledger: stock would become negative")

// LedgerRepository is the only writer of materials.current_stock.
type LedgerRepository interface {
	// AppendTx moves the material's stock by the entry's signed quantity and
	// inserts the entry. Both statements run on tx.
	AppendTx(tx *gorm.DB, t *model.MaterialTransaction) error
	List(ctx context.Context, materialID uuid.UUID, filter dto.TransactionFilter) ([]model.MaterialTransaction, int64, error)
	// Totals returns Σ(in) and Σ(out) for a material.
	Totals(ctx context.Context, materialID uuid.UUID) (totalIn, totalOut decimal.Decimal, err error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) AppendTx(tx *gorm.DB, t *model.MaterialTransaction) error {
	delta := t.Signed()
	res := tx.Exec(
		`UPDATE materials SET current_stock = current_stock + ?, updated_at = ? WHERE id = ? AND current_stock + ? >= 0`,
		delta, time.Now(), t.MaterialID, delta,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNegativeStock
	}
	return tx.Create(t).Error
}

func (r *ledgerRepo) List(ctx context.Context, materialID uuid.UUID, filter dto.TransactionFilter) ([]model.MaterialTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MaterialTransaction{}).
		Where("material_id = ?", materialID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.OrderID != "" {
		q = q.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit, DefaultLedgerPageSize, MaxLedgerPageSize)
	var txs []model.MaterialTransaction
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&txs).Error
	return txs, total, err
}

func (r *ledgerRepo) Totals(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		TotalIn  decimal.Decimal
		TotalOut decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(CASE WHEN type = 'in'  THEN quantity ELSE 0 END), 0) AS total_in,
		       COALESCE(SUM(CASE WHEN type = 'out' THEN quantity ELSE 0 END), 0) AS total_out
		FROM material_transactions
		WHERE material_id = ?`, materialID).Scan(&row).Error
	return row.TotalIn, row.TotalOut, err
}
