// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import "factorylink/internal/dto"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// ShortfallError lists every material that blocked an allocation.
type ShortfallError struct {
	Detail     string                  `json:"detail"`
	Shortfalls []dto.MaterialShortfall `json:"shortfalls"`
}

func NewShortfall(msg string, shortfalls []dto.MaterialShortfall) *ShortfallError {
	return &ShortfallError{Detail: msg, Shortfalls: shortfalls}
}
