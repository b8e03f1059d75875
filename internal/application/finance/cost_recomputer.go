package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/autoexport/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CostRecomputer rebuilds a cost invoice's derived fields from live data:
// revenue from the invoice charges, cost from the cost items plus every
// shared invoice allocation of the invoice's vehicle. Every mutation that can
// move those inputs calls it explicitly.
type CostRecomputer struct {
	scope      TransactionScope
	logger     *zap.Logger
	metrics    LedgerMetrics
	maxRetries int
}

// NewCostRecomputer creates a CostRecomputer. A lost optimistic-lock race is
// retried up to maxRetries times before OPTIMISTIC_LOCK_ERROR is returned.
func NewCostRecomputer(scope TransactionScope, logger *zap.Logger, maxRetries int) *CostRecomputer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &CostRecomputer{
		scope:      scope,
		logger:     logger,
		metrics:    noopLedgerMetrics{},
		maxRetries: maxRetries,
	}
}

// SetMetrics sets the metrics recorder
func (r *CostRecomputer) SetMetrics(m LedgerMetrics) {
	r.metrics = metricsOrNoop(m)
}

// RecomputeInTx recomputes the cost invoice of invoice inside an open
// transaction, materializing it first if needed. It does not retry.
func (r *CostRecomputer) RecomputeInTx(ctx context.Context, repos TransactionalRepositories, invoice *finance.Invoice) (*finance.CostInvoice, error) {
	ci, _, err := materializeCostInvoice(ctx, repos, invoice)
	if err != nil {
		return nil, err
	}
	if err := recomputeCostInvoice(ctx, repos, invoice, ci); err != nil {
		return nil, err
	}
	return ci, nil
}

// recomputeCostInvoice overwrites the derived fields of ci. totalCost is the
// cost items plus the vehicle's allocation across all shared invoices.
func recomputeCostInvoice(ctx context.Context, repos TransactionalRepositories, invoice *finance.Invoice, ci *finance.CostInvoice) error {
	cost := ci.ItemsTotal()
	if invoice.VehicleID != nil {
		allocated, err := repos.SharedInvoices().SumAllocationsForVehicle(ctx, *invoice.VehicleID)
		if err != nil {
			return fmt.Errorf("failed to sum shared allocations: %w", err)
		}
		cost = cost.Add(allocated)
	}

	ci.ApplyProfitability(finance.ComputeProfitability(invoice.Totals().Total, cost))
	ci.IncrementVersion()
	return repos.CostInvoices().SaveWithLock(ctx, ci)
}

// RecomputeForInvoice recomputes one invoice's cost invoice in its own transaction
func (r *CostRecomputer) RecomputeForInvoice(ctx context.Context, invoiceID uuid.UUID) (*finance.CostInvoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cost_recompute", "for_invoice")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	var result *finance.CostInvoice
	err := r.withRetry(ctx, invoiceID, func() error {
		return r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
			if err != nil {
				return err
			}
			result, err = r.RecomputeInTx(ctx, repos, invoice)
			return err
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// RecomputeForVehicle recomputes the cost invoice of every invoice linked to
// the vehicle. Failures are collected and the remaining invoices still run.
// The returned cost invoices name the affected invoices through InvoiceID,
// also when an error is returned.
func (r *CostRecomputer) RecomputeForVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*finance.CostInvoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cost_recompute", "for_vehicle")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrVehicleID, vehicleID.String())

	var invoices []finance.Invoice
	err := r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoices, err = repos.Invoices().FindByVehicle(ctx, vehicleID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load invoices for vehicle: %w", err)
	}

	results := make([]*finance.CostInvoice, 0, len(invoices))
	var errs []error
	for _, inv := range invoices {
		ci, err := r.RecomputeForInvoice(ctx, inv.ID)
		if err != nil {
			r.logger.Error("failed to recompute cost invoice",
				zap.String("vehicle_id", vehicleID.String()),
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		results = append(results, ci)
	}
	if err := errors.Join(errs...); err != nil {
		telemetry.RecordError(span, err)
		return results, err
	}
	return results, nil
}

// withRetry reruns fn while it loses optimistic-lock races
func (r *CostRecomputer) withRetry(ctx context.Context, invoiceID uuid.UUID, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err = fn()
		if !errors.Is(err, shared.ErrOptimisticLock) {
			return err
		}
		r.metrics.RecordRecomputeConflict(ctx)
		r.logger.Warn("cost invoice changed concurrently, retrying",
			zap.String("invoice_id", invoiceID.String()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxRetries),
		)
	}
	return err
}

// materializeCostInvoice returns the invoice's cost invoice, locked for update,
// creating it seeded from the invoice revenue when none exists yet.
func materializeCostInvoice(ctx context.Context, repos TransactionalRepositories, invoice *finance.Invoice) (*finance.CostInvoice, bool, error) {
	ci, err := repos.CostInvoices().FindByInvoiceIDForUpdate(ctx, invoice.ID)
	if err == nil {
		return ci, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load cost invoice: %w", err)
	}

	ci = finance.NewCostInvoice(invoice.ID, invoice.Totals().Total)
	if err := repos.CostInvoices().Create(ctx, ci); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, false, fmt.Errorf("%w: cost invoice for %s was created concurrently", shared.ErrOptimisticLock, invoice.InvoiceNumber)
		}
		return nil, false, fmt.Errorf("failed to create cost invoice: %w", err)
	}
	return ci, true, nil
}
