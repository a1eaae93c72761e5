package service

import (
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/model"

	"github.com/google/uuid"
)

const dateTimeLayout = time.RFC3339

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timePtrString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateTimeLayout)
	return &s
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, validationf("invalid uuid %q", *s)
	}
	return &id, nil
}

func materialToResponse(m *model.Material) *dto.MaterialResponse {
	return &dto.MaterialResponse{
		ID:           m.ID.String(),
		ShopID:       m.ShopID.String(),
		Name:         m.Name,
		Code:         m.Code,
		Unit:         m.Unit,
		CurrentStock: m.CurrentStock,
		SafetyStock:  m.SafetyStock,
		UnitPrice:    m.UnitPrice,
		LowStock:     m.BelowSafetyStock(),
	}
}

func transactionToResponse(t *model.MaterialTransaction) dto.MaterialTransactionResponse {
	return dto.MaterialTransactionResponse{
		ID:              t.ID.String(),
		MaterialID:      t.MaterialID.String(),
		Type:            t.Type,
		Quantity:        t.Quantity,
		StockBefore:     t.StockBefore,
		StockAfter:      t.StockAfter,
		TransactionDate: t.TransactionDate.Format("2006-01-02"),
		OrderID:         uuidPtrString(t.OrderID),
		PurchaseOrderID: uuidPtrString(t.PurchaseOrderID),
		Notes:           t.Notes,
	}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:                      p.ID.String(),
		ShopID:                  p.ShopID.String(),
		Name:                    p.Name,
		SKU:                     p.SKU,
		Price:                   p.Price,
		InventoryQuantity:       p.InventoryQuantity,
		ExternalInventoryItemID: p.ExternalInventoryItemID,
		Active:                  p.Active,
	}
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:          o.ID.String(),
		ShopID:      o.ShopID.String(),
		CustomerID:  o.CustomerID.String(),
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Notes:       o.Notes,
		OrderedAt:   o.OrderedAt.Format(dateTimeLayout),
		ShippedAt:   timePtrString(o.ShippedAt),
		Items:       make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	if o.Customer != nil {
		resp.CustomerName = o.Customer.Name
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return resp
}

func purchaseOrderToResponse(po *model.PurchaseOrder) *dto.PurchaseOrderResponse {
	resp := &dto.PurchaseOrderResponse{
		ID:          po.ID.String(),
		ShopID:      po.ShopID.String(),
		SupplierID:  po.SupplierID.String(),
		PONumber:    po.PONumber,
		Status:      po.Status,
		TotalAmount: po.TotalAmount,
		Notes:       po.Notes,
		OrderedAt:   timePtrString(po.OrderedAt),
		ReceivedAt:  timePtrString(po.ReceivedAt),
		Items:       make([]dto.PurchaseOrderItemResponse, 0, len(po.Items)),
	}
	for _, it := range po.Items {
		resp.Items = append(resp.Items, dto.PurchaseOrderItemResponse{
			MaterialID: it.MaterialID.String(),
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Subtotal:   it.Subtotal,
		})
	}
	return resp
}
