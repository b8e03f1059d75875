package handler

import (
	"context"

	financeapp "github.com/autoexport/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContainerInvoiceUseCase is the container invoice application service as seen by HTTP
type ContainerInvoiceUseCase interface {
	Create(ctx context.Context, req financeapp.CreateContainerInvoiceRequest) (*financeapp.ContainerInvoiceResponse, error)
}

// ContainerInvoiceHandler serves /container-invoices
type ContainerInvoiceHandler struct {
	BaseHandler
	containerInvoices ContainerInvoiceUseCase
}

// NewContainerInvoiceHandler creates a ContainerInvoiceHandler
func NewContainerInvoiceHandler(containerInvoices ContainerInvoiceUseCase) *ContainerInvoiceHandler {
	return &ContainerInvoiceHandler{containerInvoices: containerInvoices}
}

// CreateContainerInvoiceRequest is the POST /container-invoices body
type CreateContainerInvoiceRequest struct {
	CustomerID      string           `json:"customer_id" binding:"required,uuid"`
	SharedInvoiceID string           `json:"shared_invoice_id" binding:"required,uuid"`
	VehicleIDs      []string         `json:"vehicle_ids" binding:"dive,uuid"`
	TaxEnabled      bool             `json:"tax_enabled"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
}

// RegisterRoutes mounts the container invoice routes
func (h *ContainerInvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/container-invoices", h.Create)
}

// Create handles POST /container-invoices
func (h *ContainerInvoiceHandler) Create(c *gin.Context) {
	var req CreateContainerInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.containerInvoices.Create(c.Request.Context(), financeapp.CreateContainerInvoiceRequest{
		CustomerID:      uuid.MustParse(req.CustomerID),
		SharedInvoiceID: uuid.MustParse(req.SharedInvoiceID),
		VehicleIDs:      parseUUIDs(req.VehicleIDs),
		TaxEnabled:      req.TaxEnabled,
		TaxRate:         req.TaxRate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
