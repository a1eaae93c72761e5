package repository

import (
	"context"

	"factorylink/internal/dto"
	"factorylink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	// ListMapped returns active products linked to an external inventory item.
	ListMapped(ctx context.Context) ([]model.Product, error)
	// SetInventory overwrites the advisory cache (drift correction).
	SetInventory(ctx context.Context, id uuid.UUID, qty int) error

	// AdjustInventoryTx locks the product row and moves inventory_quantity by
	// delta, flooring the result at zero. It returns the values before and after.
	AdjustInventoryTx(tx *gorm.DB, id uuid.UUID, delta int) (before, after int, err error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("active = true")
	if filter.ShopID != "" {
		q = q.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ? OR sku = ?", "%"+filter.Name+"%", filter.Name)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit, DefaultPageSize, MaxPageSize)
	var products []model.Product
	err := q.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListMapped(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("active = true AND external_inventory_item_id IS NOT NULL").
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) SetInventory(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("inventory_quantity", qty).Error
}

func (r *productRepo) AdjustInventoryTx(tx *gorm.DB, id uuid.UUID, delta int) (int, int, error) {
	var p model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "inventory_quantity").
		First(&p, "id = ?", id).Error; err != nil {
		return 0, 0, err
	}
	before := p.InventoryQuantity
	after := before + delta
	if after < 0 {
		after = 0
	}
	err := tx.Model(&model.Product{}).Where("id = ?", id).
		Update("inventory_quantity", after).Error
	return before, after, err
}
