package service

import (
	"context"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/google/uuid"
)

// PartnerService manages customers and suppliers.
type PartnerService interface {
	CreateCustomer(ctx context.Context, req dto.CreatePartnerRequest) (*dto.PartnerResponse, error)
	ListCustomers(ctx context.Context, shopID string) ([]dto.PartnerResponse, error)
	CreateSupplier(ctx context.Context, req dto.CreatePartnerRequest) (*dto.PartnerResponse, error)
	ListSuppliers(ctx context.Context, shopID string) ([]dto.PartnerResponse, error)
}

type partnerService struct {
	customers repository.CustomerRepository
	suppliers repository.SupplierRepository
}

func NewPartnerService(customers repository.CustomerRepository, suppliers repository.SupplierRepository) PartnerService {
	return &partnerService{customers: customers, suppliers: suppliers}
}

func (s *partnerService) CreateCustomer(ctx context.Context, req dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return nil, validationf("invalid shop_id")
	}
	c := &model.Customer{ShopID: shopID, Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return &dto.PartnerResponse{ID: c.ID.String(), ShopID: c.ShopID.String(), Name: c.Name, Email: c.Email, Phone: c.Phone}, nil
}

func (s *partnerService) ListCustomers(ctx context.Context, shopID string) ([]dto.PartnerResponse, error) {
	customers, err := s.customers.List(ctx, shopID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PartnerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, dto.PartnerResponse{ID: c.ID.String(), ShopID: c.ShopID.String(), Name: c.Name, Email: c.Email, Phone: c.Phone})
	}
	return out, nil
}

func (s *partnerService) CreateSupplier(ctx context.Context, req dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return nil, validationf("invalid shop_id")
	}
	sup := &model.Supplier{ShopID: shopID, Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address, Active: true}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, err
	}
	return supplierToResponse(sup), nil
}

func (s *partnerService) ListSuppliers(ctx context.Context, shopID string) ([]dto.PartnerResponse, error) {
	suppliers, err := s.suppliers.List(ctx, shopID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PartnerResponse, 0, len(suppliers))
	for i := range suppliers {
		out = append(out, *supplierToResponse(&suppliers[i]))
	}
	return out, nil
}

func supplierToResponse(s *model.Supplier) *dto.PartnerResponse {
	return &dto.PartnerResponse{
		ID:      s.ID.String(),
		ShopID:  s.ShopID.String(),
		Name:    s.Name,
		Email:   s.Email,
		Phone:   s.Phone,
		Address: s.Address,
	}
}
