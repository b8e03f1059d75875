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

// TransactionUseCase is the transaction application service as seen by HTTP
type TransactionUseCase interface {
	Record(ctx context.Context, req financeapp.RecordTransactionRequest) (*financeapp.TransactionResult, error)
	Update(ctx context.Context, id uuid.UUID, patch finance.TransactionPatch) (*financeapp.TransactionResult, error)
	Delete(ctx context.Context, id uuid.UUID) (*financeapp.TransactionResult, error)
}

// TransactionHandler serves /transactions
type TransactionHandler struct {
	BaseHandler
	transactions TransactionUseCase
}

// NewTransactionHandler creates a TransactionHandler
func NewTransactionHandler(transactions TransactionUseCase) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// RecordTransactionRequest is the POST /transactions body
type RecordTransactionRequest struct {
	Direction          string          `json:"direction" binding:"required,oneof=INCOMING OUTGOING"`
	Type               string          `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	Date               time.Time       `json:"date" binding:"required"`
	Description        string          `json:"description"`
	InvoiceID          *string         `json:"invoice_id" binding:"omitempty,uuid"`
	VehicleID          *string         `json:"vehicle_id" binding:"omitempty,uuid"`
	CustomerID         *string         `json:"customer_id" binding:"omitempty,uuid"`
	VendorID           *string         `json:"vendor_id" binding:"omitempty,uuid"`
	CostItemID         *string         `json:"cost_item_id" binding:"omitempty,uuid"`
	VehicleStageCostID *string         `json:"vehicle_stage_cost_id" binding:"omitempty,uuid"`
}

// RegisterRoutes mounts the transaction routes
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/transactions")
	group.POST("", h.Record)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// Record handles POST /transactions
func (h *TransactionHandler) Record(c *gin.Context) {
	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.transactions.Record(c.Request.Context(), financeapp.RecordTransactionRequest{
		Direction:          finance.TransactionDirection(req.Direction),
		Type:               req.Type,
		Amount:             req.Amount,
		Date:               req.Date,
		Description:        req.Description,
		InvoiceID:          parseOptionalUUID(req.InvoiceID),
		VehicleID:          parseOptionalUUID(req.VehicleID),
		CustomerID:         parseOptionalUUID(req.CustomerID),
		VendorID:           parseOptionalUUID(req.VendorID),
		CostItemID:         parseOptionalUUID(req.CostItemID),
		VehicleStageCostID: parseOptionalUUID(req.VehicleStageCostID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Update handles PATCH /transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var patch finance.TransactionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.transactions.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete handles DELETE /transactions/:id
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	result, err := h.transactions.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
