package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/autoexport/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateContainerInvoiceRequest is the input for creating a container invoice
type CreateContainerInvoiceRequest struct {
	CustomerID      uuid.UUID
	SharedInvoiceID uuid.UUID
	// VehicleIDs selects a subset of the shared invoice's vehicles; empty means all
	VehicleIDs []uuid.UUID
	TaxEnabled bool
	TaxRate    *decimal.Decimal
}

// ContainerInvoiceService creates customer-facing container invoices from
// CONTAINER shared invoices
type ContainerInvoiceService struct {
	scope          TransactionScope
	allocator      *CostAllocationService
	settings       Settings
	logger         *zap.Logger
	metrics        LedgerMetrics
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewContainerInvoiceService creates a new ContainerInvoiceService
func NewContainerInvoiceService(scope TransactionScope, allocator *CostAllocationService, settings Settings, logger *zap.Logger) *ContainerInvoiceService {
	return &ContainerInvoiceService{
		scope:     scope,
		allocator: allocator,
		settings:  settings.withDefaults(),
		logger:    logger,
		metrics:   noopLedgerMetrics{},
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ContainerInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *ContainerInvoiceService) SetMetrics(m LedgerMetrics) {
	s.metrics = metricsOrNoop(m)
}

// SetClock overrides the time source used for the numbering year
func (s *ContainerInvoiceService) SetClock(now func() time.Time) {
	s.now = now
}

// Create stores a CONTAINER-YYYY-NNN invoice mirroring the shared invoice's
// per-vehicle allocation, then applies it to the vehicles' cost invoices.
// When the parent shared invoice lacks a vendor, the per-vehicle step is
// skipped and logged; the invoice itself is still created.
func (s *ContainerInvoiceService) Create(ctx context.Context, req CreateContainerInvoiceRequest) (*ContainerInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "container_invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSharedInvoiceID, req.SharedInvoiceID.String(),
		telemetry.SpanAttrVehicleCount, len(req.VehicleIDs),
	)

	var ci *finance.ContainerInvoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		source, err := repos.SharedInvoices().FindByID(ctx, req.SharedInvoiceID)
		if err != nil {
			return fmt.Errorf("failed to load shared invoice: %w", err)
		}
		if !source.IsContainer() {
			return finance.ErrInvalidSharedInvoiceType
		}
		spec := s.settings.yearSequence(finance.SharedInvoiceTypeContainer, s.now())
		number, err := repos.Sequences().NextNumber(ctx, finance.SequenceContainerInvoice, spec)
		if err != nil {
			return fmt.Errorf("failed to generate container invoice number: %w", err)
		}
		ci, err = finance.NewContainerInvoice(number, req.CustomerID, source, req.VehicleIDs, req.TaxEnabled, req.TaxRate)
		if err != nil {
			return err
		}
		return repos.ContainerInvoices().Create(ctx, ci)
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateNumber) {
			s.metrics.RecordSequenceCollision(ctx, string(finance.SequenceContainerInvoice))
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceNumber, ci.InvoiceNumber)
	s.logger.Info("container invoice created",
		zap.String("container_invoice_id", ci.ID.String()),
		zap.String("invoice_number", ci.InvoiceNumber),
		zap.String("shared_invoice_id", ci.SharedInvoiceID.String()),
		zap.String("total_amount", ci.TotalAmount.StringFixed(finance.MoneyPlaces)),
	)

	if s.eventPublisher != nil {
		// Errors are logged by the event bus, not propagated
		_ = s.eventPublisher.Publish(ctx, ci.GetDomainEvents()...)
	}
	ci.ClearDomainEvents()

	report, err := s.allocator.ApplyToVehicleCostInvoices(ctx, AllocationSource{Kind: SourceContainerInvoice, ID: ci.ID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("container invoice %s stored but cost allocation failed: %w", ci.InvoiceNumber, err)
	}

	resp := ToContainerInvoiceResponse(ci, report)
	return &resp, nil
}
