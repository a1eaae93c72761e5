package handler

import (
	"net/http"

	"factorylink/internal/apierror"
	"factorylink/internal/dto"
	"factorylink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PartnersHandler covers customers and suppliers, which share one request shape.
type PartnersHandler struct{ svc service.PartnerService }

func NewPartnersHandler(svc service.PartnerService) *PartnersHandler {
	return &PartnersHandler{svc: svc}
}

func (h *PartnersHandler) CreateCustomer(c *gin.Context) {
	var req dto.CreatePartnerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PartnersHandler) ListCustomers(c *gin.Context) {
	shopID, ok := shopQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListCustomers(c.Request.Context(), shopID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartnersHandler) CreateSupplier(c *gin.Context) {
	var req dto.CreatePartnerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PartnersHandler) ListSuppliers(c *gin.Context) {
	shopID, ok := shopQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListSuppliers(c.Request.Context(), shopID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// shopQuery reads the optional shop_id filter; empty means every shop.
func shopQuery(c *gin.Context) (string, bool) {
	raw := c.Query("shop_id")
	if raw == "" {
		return "", true
	}
	if _, err := uuid.Parse(raw); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid shop_id"))
		return "", false
	}
	return raw, true
}
