package service

import (
	"context"
	"errors"
	"fmt"

	"factorylink/internal/dto"
	"factorylink/internal/infra"
	"factorylink/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InventorySystem is the external system of record for finished goods.
// *infra.CommerceClient implements it.
type InventorySystem interface {
	GetQuantity(ctx context.Context, itemID string) (int, error)
	AdjustQuantity(ctx context.Context, itemID string, delta int) error
}

// InventorySyncService mirrors local finished-goods movements to the external
// system. It never retries on its own; callers decide what a failure means.
type InventorySyncService interface {
	Push(ctx context.Context, productID uuid.UUID, delta int) error
	// Reconcile overwrites the local advisory cache with the external quantity.
	Reconcile(ctx context.Context, productID uuid.UUID) (*dto.ReconcileResponse, error)
	// ReconcileAll reconciles every mapped product, stopping early if the
	// external system becomes unavailable.
	ReconcileAll(ctx context.Context) ([]dto.ReconcileResponse, error)
}

type inventorySyncService struct {
	products repository.ProductRepository
	external InventorySystem
}

func NewInventorySyncService(products repository.ProductRepository, external InventorySystem) InventorySyncService {
	return &inventorySyncService{products: products, external: external}
}

func (s *inventorySyncService) itemID(ctx context.Context, productID uuid.UUID) (string, int, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return "", 0, notFound(err, "product", productID)
	}
	if p.ExternalInventoryItemID == nil || *p.ExternalInventoryItemID == "" {
		return "", 0, fmt.Errorf("product %s: %w", productID, ErrProductNotMapped)
	}
	return *p.ExternalInventoryItemID, p.InventoryQuantity, nil
}

func (s *inventorySyncService) Push(ctx context.Context, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	itemID, _, err := s.itemID(ctx, productID)
	if err != nil {
		return err
	}

	current, err := s.external.GetQuantity(ctx, itemID)
	if err != nil {
		return externalErr("read external quantity", itemID, err)
	}
	if err := s.external.AdjustQuantity(ctx, itemID, delta); err != nil {
		return externalErr("adjust external quantity", itemID, err)
	}

	log.Info().
		Str("product_id", productID.String()).
		Str("item_id", itemID).
		Int("before", current).
		Int("delta", delta).
		Msg("inventory_sync: pushed delta")
	return nil
}

func (s *inventorySyncService) Reconcile(ctx context.Context, productID uuid.UUID) (*dto.ReconcileResponse, error) {
	itemID, local, err := s.itemID(ctx, productID)
	if err != nil {
		return nil, err
	}
	external, err := s.external.GetQuantity(ctx, itemID)
	if err != nil {
		return nil, externalErr("read external quantity", itemID, err)
	}

	target := external
	if target < 0 {
		target = 0
	}
	resp := &dto.ReconcileResponse{ProductID: productID.String(), LocalBefore: local, ExternalValue: external}
	if target != local {
		if err := s.products.SetInventory(ctx, productID, target); err != nil {
			return nil, err
		}
		resp.Corrected = true
		log.Warn().
			Str("product_id", productID.String()).
			Int("local", local).
			Int("external", external).
			Msg("inventory_sync: local cache drift corrected")
	}
	return resp, nil
}

func (s *inventorySyncService) ReconcileAll(ctx context.Context) ([]dto.ReconcileResponse, error) {
	products, err := s.products.ListMapped(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.ReconcileResponse, 0, len(products))
	for _, p := range products {
		r, err := s.Reconcile(ctx, p.ID)
		if errors.Is(err, ErrExternalSystemUnavailable) {
			return results, err
		}
		if err != nil {
			log.Error().Err(err).Str("product_id", p.ID.String()).Msg("inventory_sync: reconcile failed")
			continue
		}
		results = append(results, *r)
	}
	return results, nil
}

// externalErr wraps a commerce failure. A 404 means the stored item id is
// stale, which is a mapping problem rather than an outage.
func externalErr(op, itemID string, err error) error {
	if errors.Is(err, infra.ErrItemNotFound) {
		return fmt.Errorf("%s for %s: %w: %w", op, itemID, ErrProductNotMapped, err)
	}
	return fmt.Errorf("%s for %s: %w", op, itemID, err)
}
