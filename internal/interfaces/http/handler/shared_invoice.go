package handler

import (
	"context"
	"time"

	financeapp "github.com/autoexport/backend/internal/application/finance"
	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SharedInvoiceUseCase is the shared invoice application service as seen by HTTP
type SharedInvoiceUseCase interface {
	Create(ctx context.Context, req financeapp.CreateSharedInvoiceRequest) (*financeapp.SharedInvoiceResponse, error)
	Update(ctx context.Context, id uuid.UUID, patch finance.SharedInvoicePatch) (*financeapp.SharedInvoiceResponse, error)
}

// SharedInvoiceHandler serves /shared-invoices
type SharedInvoiceHandler struct {
	BaseHandler
	sharedInvoices SharedInvoiceUseCase
}

// NewSharedInvoiceHandler creates a SharedInvoiceHandler
func NewSharedInvoiceHandler(sharedInvoices SharedInvoiceUseCase) *SharedInvoiceHandler {
	return &SharedInvoiceHandler{sharedInvoices: sharedInvoices}
}

// SharedInvoiceMetadataRequest keeps the stored metadata key names
type SharedInvoiceMetadataRequest struct {
	VendorID  string `json:"vendorId"`
	CostItems string `json:"costItems"`
}

// CreateSharedInvoiceRequest is the POST /shared-invoices body. Vendor and
// vehicle rules are enforced by the service so clients get domain codes.
type CreateSharedInvoiceRequest struct {
	Type             string                       `json:"type" binding:"required"`
	TotalAmount      decimal.Decimal              `json:"total_amount"`
	Description      string                       `json:"description"`
	InvoiceDate      *time.Time                   `json:"invoice_date"`
	Metadata         SharedInvoiceMetadataRequest `json:"metadata"`
	VehicleIDs       []string                     `json:"vehicle_ids" binding:"dive,uuid"`
	AllocationMethod string                       `json:"allocation_method"`
	Allocations      []finance.VehicleAllocation  `json:"allocations"`
}

// RegisterRoutes mounts the shared invoice routes
func (h *SharedInvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/shared-invoices")
	group.POST("", h.Create)
	group.PATCH("/:id", h.Update)
}

// Create handles POST /shared-invoices
func (h *SharedInvoiceHandler) Create(c *gin.Context) {
	var req CreateSharedInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	in := financeapp.CreateSharedInvoiceRequest{
		Type:             req.Type,
		TotalAmount:      req.TotalAmount,
		Description:      req.Description,
		VendorID:         req.Metadata.VendorID,
		CostItems:        req.Metadata.CostItems,
		VehicleIDs:       parseUUIDs(req.VehicleIDs),
		AllocationMethod: req.AllocationMethod,
		Allocations:      req.Allocations,
	}
	if req.InvoiceDate != nil {
		in.InvoiceDate = *req.InvoiceDate
	}

	resp, err := h.sharedInvoices.Create(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update handles PATCH /shared-invoices/:id
func (h *SharedInvoiceHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var patch finance.SharedInvoicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.sharedInvoices.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
