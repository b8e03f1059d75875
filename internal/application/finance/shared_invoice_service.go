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

// AllocationStrategyProvider resolves allocation strategies by name. An empty
// name selects the default strategy.
type AllocationStrategyProvider interface {
	GetAllocationStrategy(name string) (finance.AllocationStrategy, error)
}

// CreateSharedInvoiceRequest is the input for creating a shared invoice
type CreateSharedInvoiceRequest struct {
	Type             string
	TotalAmount      decimal.Decimal
	Description      string
	InvoiceDate      time.Time
	VendorID         string
	CostItems        string
	VehicleIDs       []uuid.UUID
	AllocationMethod string
	Allocations      []finance.VehicleAllocation
}

// SharedInvoiceService creates and edits shared vendor invoices, splits them
// across vehicles and pushes the split into the vehicles' cost invoices
type SharedInvoiceService struct {
	scope      TransactionScope
	strategies AllocationStrategyProvider
	allocator  *CostAllocationService
	recomputer *CostRecomputer
	settings   Settings
	logger     *zap.Logger
	metrics    LedgerMetrics
	now        func() time.Time

	eventPublisher shared.EventPublisher
}

// NewSharedInvoiceService creates a new SharedInvoiceService
func NewSharedInvoiceService(
	scope TransactionScope,
	strategies AllocationStrategyProvider,
	allocator *CostAllocationService,
	recomputer *CostRecomputer,
	settings Settings,
	logger *zap.Logger,
) *SharedInvoiceService {
	return &SharedInvoiceService{
		scope:      scope,
		strategies: strategies,
		allocator:  allocator,
		recomputer: recomputer,
		settings:   settings.withDefaults(),
		logger:     logger,
		metrics:    noopLedgerMetrics{},
		now:        time.Now,
	}
}

// SetEventPublisher sets the publisher for the events raised when vehicles
// leave a shared invoice
func (s *SharedInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *SharedInvoiceService) SetMetrics(m LedgerMetrics) {
	s.metrics = metricsOrNoop(m)
}

// SetClock overrides the time source used for default invoice dates
func (s *SharedInvoiceService) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates the request, allocates the total across the vehicles,
// stores the shared invoice under a "{TYPE}-{year}-NNN" number and then
// applies the allocation to the vehicles' cost invoices.
func (s *SharedInvoiceService) Create(ctx context.Context, req CreateSharedInvoiceRequest) (*SharedInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shared_invoice", "create")
	defer span.End()

	metadata := finance.SharedInvoiceMetadata{VendorID: req.VendorID, CostItems: req.CostItems}
	vehicleIDs := req.VehicleIDs
	if len(vehicleIDs) == 0 {
		vehicleIDs = allocationVehicleIDs(req.Allocations)
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAmount, req.TotalAmount.String(),
		telemetry.SpanAttrVehicleCount, len(vehicleIDs),
	)

	// Nothing is written unless validation and allocation succeed
	if err := finance.ValidateSharedInvoiceInput(req.TotalAmount, metadata, vehicleIDs); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	strategy, allocations, err := s.allocate(ctx, req.AllocationMethod, req.TotalAmount, vehicleIDs, req.Allocations)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = s.now()
	}

	var si *finance.SharedInvoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoiceType := finance.NormalizeSharedInvoiceType(req.Type)
		number, err := repos.Sequences().NextNumber(ctx, finance.SequenceSharedInvoice, s.settings.yearSequence(invoiceType, invoiceDate))
		if err != nil {
			return fmt.Errorf("failed to generate shared invoice number: %w", err)
		}
		si, err = finance.NewSharedInvoice(invoiceType, number, req.TotalAmount, metadata, invoiceDate)
		if err != nil {
			return err
		}
		si.Description = req.Description
		if err := si.ReplaceAllocations(strategy, allocations); err != nil {
			return err
		}
		return repos.SharedInvoices().Create(ctx, si)
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateNumber) {
			s.metrics.RecordSequenceCollision(ctx, string(finance.SequenceSharedInvoice))
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSharedInvoiceID, si.ID.String(),
		telemetry.SpanAttrInvoiceNumber, si.InvoiceNumber,
	)
	s.logger.Info("shared invoice created",
		zap.String("shared_invoice_id", si.ID.String()),
		zap.String("shared_invoice_number", si.InvoiceNumber),
		zap.String("allocation_method", si.AllocationMethod),
		zap.Int("vehicle_count", len(si.Vehicles)),
		zap.String("unallocated", si.TotalAmount.Sub(si.AllocatedTotal()).String()),
	)

	report, err := s.allocator.ApplyToVehicleCostInvoices(ctx, AllocationSource{Kind: SourceSharedInvoice, ID: si.ID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("shared invoice %s stored but cost allocation failed: %w", si.InvoiceNumber, err)
	}

	resp := ToSharedInvoiceResponse(si, report)
	return &resp, nil
}

// Update applies a partial update. Allocation rows are rebuilt wholesale when
// the total, the vehicle set or the method changes. Afterwards the allocation
// is re-applied, and vehicles dropped from the invoice get their cost
// invoices recomputed so the removed share leaves their totalCost.
func (s *SharedInvoiceService) Update(ctx context.Context, id uuid.UUID, patch finance.SharedInvoicePatch) (*SharedInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shared_invoice", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSharedInvoiceID, id.String())

	var si *finance.SharedInvoice
	var dropped []uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		si, err = repos.SharedInvoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		previous := si.VehicleIDs()

		if err := s.applyPatch(ctx, si, patch); err != nil {
			return err
		}
		if err := repos.SharedInvoices().Save(ctx, si); err != nil {
			return fmt.Errorf("failed to save shared invoice: %w", err)
		}
		dropped = missingFrom(previous, si.VehicleIDs())
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report, err := s.allocator.ApplyToVehicleCostInvoices(ctx, AllocationSource{Kind: SourceSharedInvoice, ID: si.ID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("shared invoice %s updated but cost allocation failed: %w", si.InvoiceNumber, err)
	}
	var recomputed []uuid.UUID
	for _, vehicleID := range dropped {
		costInvoices, err := s.recomputer.RecomputeForVehicle(ctx, vehicleID)
		if err != nil {
			s.logger.Error("failed to recompute cost invoices of vehicle removed from shared invoice",
				zap.String("shared_invoice_number", si.InvoiceNumber),
				zap.String("vehicle_id", vehicleID.String()),
				zap.Error(err),
			)
		}
		for _, ci := range costInvoices {
			recomputed = append(recomputed, ci.InvoiceID)
		}
	}
	s.publishDropped(ctx, si, dropped, recomputed)

	resp := ToSharedInvoiceResponse(si, report)
	return &resp, nil
}

// publishDropped announces the vehicles that left the invoice. The allocator's
// own event only names the vehicles still on it.
func (s *SharedInvoiceService) publishDropped(ctx context.Context, si *finance.SharedInvoice, vehicleIDs, invoiceIDs []uuid.UUID) {
	if s.eventPublisher == nil || len(vehicleIDs) == 0 {
		return
	}
	event := finance.NewSharedInvoiceAllocatedEvent(finance.AggregateTypeSharedInvoice, si.ID, si.InvoiceNumber, vehicleIDs, invoiceIDs)
	_ = s.eventPublisher.Publish(ctx, event)
}

func (s *SharedInvoiceService) applyPatch(ctx context.Context, si *finance.SharedInvoice, patch finance.SharedInvoicePatch) error {
	if v, ok := patch.Description.Get(); ok {
		si.Description = v
		si.Touch()
	}
	if patch.VendorID.IsSet() || patch.CostItems.IsSet() {
		metadata := finance.SharedInvoiceMetadata{
			VendorID:  patch.VendorID.ValueOr(si.Metadata.VendorID),
			CostItems: patch.CostItems.ValueOr(si.Metadata.CostItems),
		}
		if err := si.SetMetadata(metadata); err != nil {
			return err
		}
	}
	if !patch.TouchesAllocation() {
		return nil
	}

	total := patch.TotalAmount.ValueOr(si.TotalAmount)
	requested := patch.Allocations.ValueOr(nil)
	vehicleIDs := patch.VehicleIDs.ValueOr(nil)
	if len(vehicleIDs) == 0 {
		if len(requested) > 0 {
			vehicleIDs = allocationVehicleIDs(requested)
		} else if !patch.VehicleIDs.IsSet() {
			vehicleIDs = si.VehicleIDs()
		}
	}
	method := patch.AllocationMethod.ValueOr(si.AllocationMethod)
	if method == finance.AllocationMethodManual && len(requested) == 0 {
		requested = currentAllocations(si)
	}

	if err := finance.ValidateSharedInvoiceInput(total, si.Metadata, vehicleIDs); err != nil {
		return err
	}
	strategy, allocations, err := s.allocate(ctx, method, total, vehicleIDs, requested)
	if err != nil {
		return err
	}
	if err := si.SetTotalAmount(total); err != nil {
		return err
	}
	return si.ReplaceAllocations(strategy, allocations)
}

// allocate runs the named strategy and returns the strategy name actually used
func (s *SharedInvoiceService) allocate(
	ctx context.Context,
	method string,
	total decimal.Decimal,
	vehicleIDs []uuid.UUID,
	requested []finance.VehicleAllocation,
) (string, []finance.VehicleAllocation, error) {
	if method == "" {
		method = s.settings.DefaultAllocation
	}
	strategy, err := s.strategies.GetAllocationStrategy(method)
	if err != nil {
		return "", nil, shared.NewDomainError(finance.CodeInvalidAllocationStrategy,
			fmt.Sprintf("unknown allocation method %q", method))
	}
	allocations, err := strategy.Allocate(ctx, finance.AllocationRequest{
		TotalAmount: total,
		VehicleIDs:  vehicleIDs,
		Requested:   requested,
	})
	if err != nil {
		return "", nil, err
	}
	return strategy.Name(), allocations, nil
}

func allocationVehicleIDs(allocations []finance.VehicleAllocation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(allocations))
	for _, a := range allocations {
		ids = append(ids, a.VehicleID)
	}
	return ids
}

func currentAllocations(si *finance.SharedInvoice) []finance.VehicleAllocation {
	allocations := make([]finance.VehicleAllocation, 0, len(si.Vehicles))
	for _, v := range si.Vehicles {
		allocations = append(allocations, finance.VehicleAllocation{VehicleID: v.VehicleID, Amount: v.AllocatedAmount})
	}
	return allocations
}

// missingFrom lists the ids of before that are absent from after
func missingFrom(before, after []uuid.UUID) []uuid.UUID {
	keep := make(map[uuid.UUID]struct{}, len(after))
	for _, id := range after {
		keep[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range before {
		if _, ok := keep[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
