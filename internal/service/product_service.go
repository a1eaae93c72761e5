package service

import (
	"context"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/google/uuid"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return nil, validationf("invalid shop_id")
	}
	if req.Price.IsNegative() || req.InventoryQuantity < 0 {
		return nil, validationf("price and inventory_quantity cannot be negative")
	}
	p := &model.Product{
		ShopID:                  shopID,
		Name:                    req.Name,
		SKU:                     req.SKU,
		Price:                   req.Price,
		InventoryQuantity:       req.InventoryQuantity,
		ExternalInventoryItemID: req.ExternalInventoryItemID,
		Active:                  true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit, repository.DefaultPageSize, repository.MaxPageSize)
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, 0, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data = append(resp.Data, *productToResponse(&products[i]))
	}
	return resp, nil
}
