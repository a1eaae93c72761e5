package repository

import (
	"context"

	"factorylink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BOMRepository interface {
	// Upsert inserts the entry or, when the (product, material) pair exists,
	// overwrites its quantity_per_unit. e.ID is populated with the stored row id.
	Upsert(ctx context.Context, e *model.BOMEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BOMEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.BOMEntry, error)
	ListByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.BOMEntry, error)
}

type bomRepo struct{ db *gorm.DB }

func NewBOMRepository(db *gorm.DB) BOMRepository { return &bomRepo{db: db} }

func (r *bomRepo) Upsert(ctx context.Context, e *model.BOMEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "material_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity_per_unit", "updated_at"}),
	}).Create(e).Error
}

func (r *bomRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BOMEntry, error) {
	var e model.BOMEntry
	err := r.db.WithContext(ctx).Preload("Material").First(&e, "id = ?", id).Error
	return &e, err
}

func (r *bomRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.BOMEntry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bomRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.BOMEntry, error) {
	return r.ListByProductTx(r.db.WithContext(ctx), productID)
}

func (r *bomRepo) ListByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.BOMEntry, error) {
	var entries []model.BOMEntry
	err := tx.Preload("Material").
		Where("product_id = ?", productID).
		Order("material_id ASC").
		Find(&entries).Error
	return entries, err
}
