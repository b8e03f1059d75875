package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/autoexport/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllocationSourceKind tells which aggregate carries the allocation rows
type AllocationSourceKind string

const (
	SourceSharedInvoice    AllocationSourceKind = "shared_invoice"
	SourceContainerInvoice AllocationSourceKind = "container_invoice"
)

// AllocationSource identifies the shared or container invoice to apply
type AllocationSource struct {
	Kind AllocationSourceKind
	ID   uuid.UUID
}

// AllocationOutcome is the result for one (vehicle, invoice) pair
type AllocationOutcome string

const (
	OutcomeApplied              AllocationOutcome = "APPLIED"
	OutcomeAlreadyApplied       AllocationOutcome = "ALREADY_APPLIED"
	OutcomeSkippedNoInvoices    AllocationOutcome = "SKIPPED_NO_INVOICES"
	OutcomeSkippedMissingVendor AllocationOutcome = "SKIPPED_MISSING_VENDOR"
	OutcomeFailed               AllocationOutcome = "FAILED"
)

// AllocationResult is one line of an AllocationReport
type AllocationResult struct {
	VehicleID uuid.UUID         `json:"vehicle_id"`
	InvoiceID *uuid.UUID        `json:"invoice_id,omitempty"`
	Amount    decimal.Decimal   `json:"amount"`
	Outcome   AllocationOutcome `json:"outcome"`
	Error     string            `json:"error,omitempty"`
}

// AllocationReport lists what happened to every vehicle of a source. The
// operation as a whole succeeds even when some pairs were skipped or failed.
type AllocationReport struct {
	SourceKind          AllocationSourceKind `json:"source_kind"`
	SourceID            uuid.UUID            `json:"source_id"`
	SharedInvoiceNumber string               `json:"shared_invoice_number"`
	Results             []AllocationResult   `json:"results"`
}

// Count returns how many results have the given outcome
func (r AllocationReport) Count(outcome AllocationOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// FullyApplied reports whether every pair ended APPLIED or ALREADY_APPLIED
func (r AllocationReport) FullyApplied() bool {
	for _, res := range r.Results {
		if res.Outcome != OutcomeApplied && res.Outcome != OutcomeAlreadyApplied {
			return false
		}
	}
	return true
}

// allocationPlan is a source resolved to its vendor, marker number and rows
type allocationPlan struct {
	number      string
	vendorID    uuid.UUID
	vendorErr   error
	allocations []finance.VehicleAllocation
	aggregate   string
}

// CostAllocationService pushes shared and container costs into the cost
// invoices of every affected vehicle's invoices
type CostAllocationService struct {
	scope          TransactionScope
	recomputer     *CostRecomputer
	logger         *zap.Logger
	metrics        LedgerMetrics
	eventPublisher shared.EventPublisher
}

// NewCostAllocationService creates a new CostAllocationService
func NewCostAllocationService(scope TransactionScope, recomputer *CostRecomputer, logger *zap.Logger) *CostAllocationService {
	return &CostAllocationService{
		scope:      scope,
		recomputer: recomputer,
		logger:     logger,
		metrics:    noopLedgerMetrics{},
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CostAllocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *CostAllocationService) SetMetrics(m LedgerMetrics) {
	s.metrics = metricsOrNoop(m)
}

// ApplyToVehicleCostInvoices applies the source's per-vehicle allocation to
// the cost invoice of every invoice of every allocated vehicle. Each pair runs
// in its own transaction; a failing pair is logged, reported and skipped.
//
// The Freight cost item whose description contains the shared invoice number
// marks a pair as applied. An already marked pair is only recomputed, so an
// edited allocation amount reaches totalCost through the live allocation sum
// but the existing cost item keeps its original amount.
func (s *CostAllocationService) ApplyToVehicleCostInvoices(ctx context.Context, source AllocationSource) (*AllocationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cost_allocation", "apply_to_vehicle_cost_invoices")
	defer span.End()
	started := time.Now()
	defer func() {
		s.metrics.RecordAllocationDuration(ctx, string(source.Kind), time.Since(started))
	}()

	plan, err := s.loadPlan(ctx, source)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSharedInvoiceID, source.ID.String(),
		telemetry.SpanAttrInvoiceNumber, plan.number,
		telemetry.SpanAttrVehicleCount, len(plan.allocations),
	)

	report := &AllocationReport{
		SourceKind:          source.Kind,
		SourceID:            source.ID,
		SharedInvoiceNumber: plan.number,
		Results:             make([]AllocationResult, 0, len(plan.allocations)),
	}

	for _, alloc := range plan.allocations {
		report.Results = append(report.Results, s.applyToVehicle(ctx, plan, alloc)...)
	}

	for _, res := range report.Results {
		s.metrics.RecordAllocation(ctx, string(res.Outcome))
	}

	s.logger.Info("shared cost applied to vehicle cost invoices",
		zap.String("source_kind", string(source.Kind)),
		zap.String("source_id", source.ID.String()),
		zap.String("shared_invoice_number", plan.number),
		zap.Int("applied", report.Count(OutcomeApplied)),
		zap.Int("already_applied", report.Count(OutcomeAlreadyApplied)),
		zap.Int("skipped_no_invoices", report.Count(OutcomeSkippedNoInvoices)),
		zap.Int("skipped_missing_vendor", report.Count(OutcomeSkippedMissingVendor)),
		zap.Int("failed", report.Count(OutcomeFailed)),
	)

	s.publishAllocated(ctx, source, plan, report)
	return report, nil
}

// loadPlan resolves the source rows. Container invoices take their vendor and
// marker number from the parent shared invoice, so a vehicle already charged
// through the shared invoice is not charged twice.
func (s *CostAllocationService) loadPlan(ctx context.Context, source AllocationSource) (*allocationPlan, error) {
	plan := &allocationPlan{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var parent *finance.SharedInvoice
		switch source.Kind {
		case SourceSharedInvoice:
			si, err := repos.SharedInvoices().FindByID(ctx, source.ID)
			if err != nil {
				return fmt.Errorf("failed to load shared invoice: %w", err)
			}
			parent = si
			plan.aggregate = finance.AggregateTypeSharedInvoice
			for _, v := range si.Vehicles {
				plan.allocations = append(plan.allocations, finance.VehicleAllocation{VehicleID: v.VehicleID, Amount: v.AllocatedAmount})
			}
		case SourceContainerInvoice:
			ci, err := repos.ContainerInvoices().FindByID(ctx, source.ID)
			if err != nil {
				return fmt.Errorf("failed to load container invoice: %w", err)
			}
			si, err := repos.SharedInvoices().FindByID(ctx, ci.SharedInvoiceID)
			if err != nil {
				return fmt.Errorf("failed to load parent shared invoice: %w", err)
			}
			parent = si
			plan.aggregate = finance.AggregateTypeContainerInvoice
			for _, v := range ci.Vehicles {
				plan.allocations = append(plan.allocations, finance.VehicleAllocation{VehicleID: v.VehicleID, Amount: v.AllocatedAmount})
			}
		default:
			return shared.NewDomainError(finance.CodeValidation, "unknown allocation source kind: "+string(source.Kind))
		}

		plan.number = parent.InvoiceNumber
		plan.vendorID, plan.vendorErr = parent.Metadata.ResolveVendorID()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// applyToVehicle handles every invoice of one vehicle
func (s *CostAllocationService) applyToVehicle(ctx context.Context, plan *allocationPlan, alloc finance.VehicleAllocation) []AllocationResult {
	var invoices []finance.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoices, err = repos.Invoices().FindByVehicle(ctx, alloc.VehicleID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to load invoices for vehicle",
			zap.String("vehicle_id", alloc.VehicleID.String()),
			zap.String("shared_invoice_number", plan.number),
			zap.Error(err),
		)
		return []AllocationResult{{VehicleID: alloc.VehicleID, Amount: alloc.Amount, Outcome: OutcomeFailed, Error: err.Error()}}
	}
	if len(invoices) == 0 {
		s.logger.Info("vehicle has no invoices, nothing to attach cost to",
			zap.String("vehicle_id", alloc.VehicleID.String()),
			zap.String("shared_invoice_number", plan.number),
		)
		return []AllocationResult{{VehicleID: alloc.VehicleID, Amount: alloc.Amount, Outcome: OutcomeSkippedNoInvoices}}
	}

	results := make([]AllocationResult, 0, len(invoices))
	for i := range invoices {
		invoiceID := invoices[i].ID
		res := AllocationResult{VehicleID: alloc.VehicleID, InvoiceID: &invoiceID, Amount: alloc.Amount}

		err := s.recomputer.withRetry(ctx, invoiceID, func() error {
			return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
				outcome, err := s.applyToInvoice(ctx, repos, plan, alloc, invoiceID)
				res.Outcome = outcome
				return err
			})
		})
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Error = err.Error()
			s.logger.Error("failed to apply shared cost to invoice",
				zap.String("vehicle_id", alloc.VehicleID.String()),
				zap.String("invoice_id", invoiceID.String()),
				zap.String("shared_invoice_number", plan.number),
				zap.Error(err),
			)
		}
		results = append(results, res)
	}
	return results
}

// applyToInvoice runs inside the pair transaction
func (s *CostAllocationService) applyToInvoice(
	ctx context.Context,
	repos TransactionalRepositories,
	plan *allocationPlan,
	alloc finance.VehicleAllocation,
	invoiceID uuid.UUID,
) (AllocationOutcome, error) {
	// Reload inside the transaction so the revenue reflects the live charges
	invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to load invoice: %w", err)
	}
	ci, _, err := materializeCostInvoice(ctx, repos, invoice)
	if err != nil {
		return OutcomeFailed, err
	}

	outcome := OutcomeApplied
	if ci.HasFreightMarker(plan.number) {
		outcome = OutcomeAlreadyApplied
		s.logger.Info("shared cost already applied, recomputing only",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("shared_invoice_number", plan.number),
		)
	} else {
		if plan.vendorErr != nil {
			s.logger.Error("shared invoice has no usable vendor, skipping vehicle invoice",
				zap.String("vehicle_id", alloc.VehicleID.String()),
				zap.String("invoice_id", invoiceID.String()),
				zap.String("shared_invoice_number", plan.number),
				zap.Error(plan.vendorErr),
			)
			return OutcomeSkippedMissingVendor, nil
		}
		item, err := finance.NewFreightCostItem(ci.ID, plan.number, alloc.Amount, plan.vendorID)
		if err != nil {
			return OutcomeFailed, err
		}
		if err := repos.CostInvoices().AddItem(ctx, item); err != nil {
			return OutcomeFailed, fmt.Errorf("failed to add freight cost item: %w", err)
		}
		ci.AddItem(*item)
	}

	if err := recomputeCostInvoice(ctx, repos, invoice, ci); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to recompute cost invoice: %w", err)
	}
	return outcome, nil
}

func (s *CostAllocationService) publishAllocated(ctx context.Context, source AllocationSource, plan *allocationPlan, report *AllocationReport) {
	if s.eventPublisher == nil {
		return
	}
	vehicleIDs := make([]uuid.UUID, 0, len(plan.allocations))
	for _, a := range plan.allocations {
		vehicleIDs = append(vehicleIDs, a.VehicleID)
	}
	invoiceIDs := make([]uuid.UUID, 0, len(report.Results))
	for _, res := range report.Results {
		if res.InvoiceID != nil && (res.Outcome == OutcomeApplied || res.Outcome == OutcomeAlreadyApplied) {
			invoiceIDs = append(invoiceIDs, *res.InvoiceID)
		}
	}
	event := finance.NewSharedInvoiceAllocatedEvent(plan.aggregate, source.ID, plan.number, vehicleIDs, invoiceIDs)
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, event)
}
