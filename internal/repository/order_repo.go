package repository

import (
	"context"
	"fmt"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	// CreateTx persists the order header and its items. Must run inside a tx.
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	// NextOrderNumberTx draws from orders_number_seq and formats it as ORD-00000123.
	NextOrderNumberTx(tx *gorm.DB) (string, error)

	// FindByIDForUpdateTx loads the order with items and customer and holds a
	// row lock on the order until tx ends.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string, shippedAt *time.Time) error

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.ShopID != "" {
		q = q.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit, DefaultPageSize, MaxPageSize)
	var orders []model.Order
	err := q.Preload("Items").Preload("Customer").
		Order("ordered_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) NextOrderNumberTx(tx *gorm.DB) (string, error) {
	var seq int64
	if err := tx.Raw("SELECT nextval('orders_number_seq')").Scan(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%08d", seq), nil
}

func (r *orderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("order_id = ?", id).Order("created_at ASC").Find(&o.Items).Error; err != nil {
		return nil, err
	}
	var c model.Customer
	if err := tx.First(&c, "id = ?", o.CustomerID).Error; err == nil {
		o.Customer = &c
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string, shippedAt *time.Time) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
	if shippedAt != nil {
		updates["shipped_at"] = *shippedAt
	}
	return tx.Model(&model.Order{}).Where("id = ?", id).Updates(updates).Error
}
