package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheInvalidationHandler drops cached views touched by ledger events
type CacheInvalidationHandler struct {
	cache  ResponseCache
	logger *zap.Logger
}

// NewCacheInvalidationHandler creates the handler
func NewCacheInvalidationHandler(c ResponseCache, logger *zap.Logger) *CacheInvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidationHandler{cache: c, logger: logger}
}

// EventTypes returns the ledger events that change cached views
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{
		finance.EventTypeInvoiceFinancialsChanged,
		finance.EventTypeInvoicePaymentStatusChanged,
		finance.EventTypeSharedInvoiceAllocated,
		finance.EventTypeContainerInvoiceCreated,
		finance.EventTypeTransactionRecorded,
	}
}

// Handle deletes every pattern the event maps to. All patterns are attempted
// even when one fails.
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	patterns := PatternsFor(event)
	if len(patterns) == 0 {
		return nil
	}

	var errs []error
	var deleted int64
	for _, p := range patterns {
		n, err := h.cache.DeletePattern(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", p, err))
			continue
		}
		deleted += n
	}

	h.logger.Debug("cache invalidated",
		zap.String("event_type", event.EventType()),
		zap.Strings("patterns", patterns),
		zap.Int64("deleted", deleted))

	return errors.Join(errs...)
}

// PatternsFor maps an event to the cache key patterns it makes stale
func PatternsFor(event shared.DomainEvent) []string {
	var patterns []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}
	addInvoices := func(ids []uuid.UUID) {
		for _, id := range ids {
			add(InvoicePattern(id))
		}
	}
	addVehicles := func(ids []uuid.UUID) {
		for _, id := range ids {
			add(VehiclePattern(id))
		}
	}

	switch e := event.(type) {
	case *finance.InvoiceFinancialsChangedEvent:
		add(InvoicePattern(e.InvoiceID))
		if e.VehicleID != nil {
			add(VehiclePattern(*e.VehicleID))
		}
	case *finance.InvoicePaymentStatusChangedEvent:
		add(InvoicePattern(e.InvoiceID))
	case *finance.SharedInvoiceAllocatedEvent:
		add(SharedInvoicePattern())
		addInvoices(e.InvoiceIDs)
		addVehicles(e.VehicleIDs)
	case *finance.ContainerInvoiceCreatedEvent:
		add(SharedInvoicePattern())
	case *finance.TransactionRecordedEvent:
		addInvoices(e.InvoiceIDs)
		addVehicles(e.VehicleIDs)
	default:
		if event != nil && event.AggregateType() == finance.AggregateTypeInvoice {
			add(InvoicePattern(event.AggregateID()))
		}
	}
	return patterns
}

var _ shared.EventHandler = (*CacheInvalidationHandler)(nil)
