package repository

import (
	"context"

	"factorylink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PriceHistoryRepository interface {
	CreateTx(tx *gorm.DB, h *model.MaterialPriceHistory) error
	ListByMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]model.MaterialPriceHistory, error)
}

type priceHistoryRepo struct{ db *gorm.DB }

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepo{db: db}
}

func (r *priceHistoryRepo) CreateTx(tx *gorm.DB, h *model.MaterialPriceHistory) error {
	return tx.Create(h).Error
}

func (r *priceHistoryRepo) ListByMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]model.MaterialPriceHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []model.MaterialPriceHistory
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
