package service

import (
	"errors"
	"fmt"

	"factorylink/internal/dto"
	"factorylink/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sentinels. Data-bearing failures below match these through errors.Is.
var (
	ErrNotFound                  = errors.New("not found")
	ErrValidation                = errors.New("validation failed")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrInsufficientMaterials     = errors.New("insufficient materials")
	ErrBOMNotConfigured          = errors.New("bill of materials not configured")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrProductNotMapped          = errors.New("product has no external inventory item")
	ErrConcurrentModification    = errors.New("concurrent modification, retry the request")
	ErrMaterialInUse             = errors.New("material is referenced by a BOM or an open purchase order")
	ErrExternalSystemUnavailable = infra.ErrExternalUnavailable
)

type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsMaterialNotFound reports whether err is a NotFound for a material.
func IsMaterialNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) && nf.Entity == "material"
}

type InsufficientStockError struct {
	MaterialID uuid.UUID
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for material %s: requested %s, available %s",
		e.MaterialID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InsufficientMaterialsError carries every shortfall found, not just the first.
type InsufficientMaterialsError struct {
	Shortfalls []dto.MaterialShortfall
}

func (e *InsufficientMaterialsError) Error() string {
	return fmt.Sprintf("insufficient materials: %d short", len(e.Shortfalls))
}

func (e *InsufficientMaterialsError) Is(target error) bool { return target == ErrInsufficientMaterials }

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound turns gorm.ErrRecordNotFound into a typed NotFoundError.
func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}
