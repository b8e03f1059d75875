package handler

import (
	"context"
	"encoding/json"
	"time"

	financeapp "github.com/autoexport/backend/internal/application/finance"
	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/infrastructure/cache"
	"github.com/autoexport/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// cacheStatusHeader reports whether a GET was served from the response cache
const cacheStatusHeader = "X-Cache"

// InvoiceUseCase is the invoice application service as seen by HTTP
type InvoiceUseCase interface {
	Create(ctx context.Context, req financeapp.CreateInvoiceRequest) (*financeapp.InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error)
	GetCostInvoice(ctx context.Context, invoiceID uuid.UUID) (*financeapp.CostInvoiceResponse, error)
	Update(ctx context.Context, id uuid.UUID, patch finance.InvoicePatch) (*financeapp.InvoiceResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error)
	Submit(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error)
	Approve(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error)
	Finalize(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error)
}

// InvoiceHandler serves /invoices
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceUseCase
	cache    cache.ResponseCache
	cacheTTL time.Duration
}

// NewInvoiceHandler creates an InvoiceHandler. A nil cache disables caching.
func NewInvoiceHandler(invoices InvoiceUseCase, c cache.ResponseCache, cacheTTL time.Duration) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// CreateInvoiceRequest is the POST /invoices body
type CreateInvoiceRequest struct {
	CustomerID string                `json:"customer_id" binding:"required,uuid"`
	VehicleID  *string               `json:"vehicle_id" binding:"omitempty,uuid"`
	Charges    []finance.ChargeInput `json:"charges" binding:"dive"`
	TaxEnabled bool                  `json:"tax_enabled"`
	TaxRate    *decimal.Decimal      `json:"tax_rate"`
	DueDate    *time.Time            `json:"due_date"`
	Notes      string                `json:"notes"`
}

// RegisterRoutes mounts the invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.POST("", h.Create)
	invoices.GET("/:id", h.Get)
	invoices.PATCH("/:id", h.Update)
	invoices.GET("/:id/cost-invoice", h.GetCostInvoice)
	invoices.POST("/:id/cancel", h.Cancel)
	invoices.POST("/:id/submit", h.Submit)
	invoices.POST("/:id/approve", h.Approve)
	invoices.POST("/:id/finalize", h.Finalize)
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.invoices.Create(c.Request.Context(), financeapp.CreateInvoiceRequest{
		CustomerID: uuid.MustParse(req.CustomerID),
		VehicleID:  parseOptionalUUID(req.VehicleID),
		Charges:    req.Charges,
		TaxEnabled: req.TaxEnabled,
		TaxRate:    req.TaxRate,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.cached(c, cache.InvoiceDetailKey(id), func(ctx context.Context) (any, error) {
		return h.invoices.Get(ctx, id)
	})
}

// GetCostInvoice handles GET /invoices/:id/cost-invoice
func (h *InvoiceHandler) GetCostInvoice(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.cached(c, cache.InvoiceCostKey(id), func(ctx context.Context) (any, error) {
		return h.invoices.GetCostInvoice(ctx, id)
	})
}

// Update handles PATCH /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var patch finance.InvoicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.invoices.Update(c.Request.Context(), id, patch)
	h.respondMutation(c, id, resp, err)
}

// Cancel handles POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.transition(c, h.invoices.Cancel)
}

// Submit handles POST /invoices/:id/submit
func (h *InvoiceHandler) Submit(c *gin.Context) {
	h.transition(c, h.invoices.Submit)
}

// Approve handles POST /invoices/:id/approve
func (h *InvoiceHandler) Approve(c *gin.Context) {
	h.transition(c, h.invoices.Approve)
}

// Finalize handles POST /invoices/:id/finalize
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	h.transition(c, h.invoices.Finalize)
}

func (h *InvoiceHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*financeapp.InvoiceResponse, error)) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := apply(c.Request.Context(), id)
	h.respondMutation(c, id, resp, err)
}

// respondMutation also drops the invoice's cached views. Status and note
// edits raise no ledger event, so the bus alone would leave them stale.
func (h *InvoiceHandler) respondMutation(c *gin.Context, id uuid.UUID, resp *financeapp.InvoiceResponse, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.cache != nil {
		if _, cerr := h.cache.DeletePattern(c.Request.Context(), cache.InvoicePattern(id)); cerr != nil {
			logger.GetGinLogger(c).Warn("cache invalidation failed", zap.String("invoice_id", id.String()), zap.Error(cerr))
		}
	}
	h.Success(c, resp)
}

// cached serves key from the response cache or loads and stores it. Cache
// failures degrade to an uncached read.
func (h *InvoiceHandler) cached(c *gin.Context, key string, load func(context.Context) (any, error)) {
	ctx := c.Request.Context()
	log := logger.GetGinLogger(c)

	if h.cache != nil {
		data, hit, err := h.cache.Get(ctx, key)
		if err != nil {
			log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			c.Header(cacheStatusHeader, "HIT")
			h.Success(c, json.RawMessage(data))
			return
		}
	}

	resp, err := load(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.cache != nil {
		c.Header(cacheStatusHeader, "MISS")
		if data, err := json.Marshal(resp); err == nil {
			if err := h.cache.Set(ctx, key, data, h.cacheTTL); err != nil {
				log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	h.Success(c, resp)
}
