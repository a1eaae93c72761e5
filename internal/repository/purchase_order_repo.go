package repository

import (
	"context"
	"fmt"
	"time"

	"factorylink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrderRepository interface {
	CreateTx(tx *gorm.DB, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	NextPONumberTx(tx *gorm.DB) (string, error)

	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error)
	UpdateStatusTx(tx *gorm.DB, po *model.PurchaseOrder) error

	DB() *gorm.DB
}

type purchaseOrderRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) DB() *gorm.DB { return r.db }

func (r *purchaseOrderRepo) CreateTx(tx *gorm.DB, po *model.PurchaseOrder) error {
	return tx.Create(po).Error
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items").First(&po, "id = ?", id).Error
	return &po, err
}

func (r *purchaseOrderRepo) NextPONumberTx(tx *gorm.DB) (string, error) {
	var seq int64
	if err := tx.Raw("SELECT nextval('purchase_orders_number_seq')").Scan(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%08d", seq), nil
}

func (r *purchaseOrderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&po, "id = ?", id).Error; err != nil {
		return nil, err
	}
	err := tx.Where("purchase_order_id = ?", id).Order("material_id ASC").Find(&po.Items).Error
	return &po, err
}

func (r *purchaseOrderRepo) UpdateStatusTx(tx *gorm.DB, po *model.PurchaseOrder) error {
	return tx.Model(&model.PurchaseOrder{}).Where("id = ?", po.ID).Updates(map[string]interface{}{
		"status":      po.Status,
		"ordered_at":  po.OrderedAt,
		"received_at": po.ReceivedAt,
		"updated_at":  time.Now(),
	}).Error
}
