package repository

import (
	"context"

	"factorylink/internal/dto"
	"factorylink/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialRepository defines data access for materials.
// It deliberately has no method that writes current_stock; see LedgerRepository.
type MaterialRepository interface {
	Create(ctx context.Context, m *model.Material) error
	CreateTx(tx *gorm.DB, m *model.Material) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error)
	List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, int64, error)
	ListLowStock(ctx context.Context, shopID *uuid.UUID) ([]model.Material, error)
	// Update writes only the given columns, keyed by column name.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountReferences returns how many BOM entries and open purchase-order lines use the material.
	CountReferences(ctx context.Context, id uuid.UUID) (bomRefs int64, openPORefs int64, err error)

	// Used inside transactions — callers must pass the tx instance
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Material, error)
	// FindByIDsForUpdateTx locks rows in id order so concurrent allocators never deadlock.
	FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Material, error)
	UpdateUnitPriceTx(tx *gorm.DB, id uuid.UUID, price decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type materialRepo struct{ db *gorm.DB }

func NewMaterialRepository(db *gorm.DB) MaterialRepository { return &materialRepo{db: db} }

func (r *materialRepo) DB() *gorm.DB { return r.db }

func (r *materialRepo) Create(ctx context.Context, m *model.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *materialRepo) CreateTx(tx *gorm.DB, m *model.Material) error {
	return tx.Create(m).Error
}

func (r *materialRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *materialRepo) List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Material{})
	if filter.ShopID != "" {
		q = q.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit, DefaultPageSize, MaxPageSize)
	var materials []model.Material
	err := q.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&materials).Error
	return materials, total, err
}

func (r *materialRepo) ListLowStock(ctx context.Context, shopID *uuid.UUID) ([]model.Material, error) {
	q := r.db.WithContext(ctx).Where("current_stock <= safety_stock")
	if shopID != nil {
		q = q.Where("shop_id = ?", *shopID)
	}
	var materials []model.Material
	err := q.Order("current_stock ASC").Find(&materials).Error
	return materials, err
}

func (r *materialRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Material{}).
		Where("id = ?", id).
		Omit("current_stock").
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *materialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Material{}, "id = ?", id).Error
}

func (r *materialRepo) CountReferences(ctx context.Context, id uuid.UUID) (int64, int64, error) {
	var bomRefs, poRefs int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.BOMEntry{}).Where("material_id = ?", id).Count(&bomRefs).Error; err != nil {
		return 0, 0, err
	}
	err := db.Model(&model.PurchaseOrderItem{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.purchase_order_id").
		Where("purchase_order_items.material_id = ? AND purchase_orders.status IN ?", id,
			[]string{model.PurchaseOrderDraft, model.PurchaseOrderOrdered}).
		Count(&poRefs).Error
	return bomRefs, poRefs, err
}

func (r *materialRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *materialRepo) FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Material, error) {
	var materials []model.Material
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&materials).Error
	return materials, err
}

func (r *materialRepo) UpdateUnitPriceTx(tx *gorm.DB, id uuid.UUID, price decimal.Decimal) error {
	return tx.Model(&model.Material{}).Where("id = ?", id).Update("unit_price", price).Error
}

// Page size bounds. Ledger history pages are larger because entries are small.
const (
	DefaultPageSize       = 50
	MaxPageSize           = 200
	DefaultLedgerPageSize = 100
	MaxLedgerPageSize     = 500
)

// NormalizePage clamps pagination input to sane bounds. Services call it too so
// list responses echo the page that was actually read.
func NormalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}
