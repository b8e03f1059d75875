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

// RecordTransactionRequest is the input for recording a transaction
type RecordTransactionRequest struct {
	Direction          finance.TransactionDirection
	Type               string
	Amount             decimal.Decimal
	Date               time.Time
	Description        string
	InvoiceID          *uuid.UUID
	VehicleID          *uuid.UUID
	CustomerID         *uuid.UUID
	VendorID           *uuid.UUID
	CostItemID         *uuid.UUID
	VehicleStageCostID *uuid.UUID
}

// TransactionResult reports a transaction write and the state it moved
type TransactionResult struct {
	Transaction    *finance.Transaction          `json:"transaction,omitempty"`
	PaymentChanges []finance.PaymentChange       `json:"payment_changes"`
	VehicleTotals  map[uuid.UUID]decimal.Decimal `json:"vehicle_totals"`
}

// TransactionService records money movements and synchronously reconciles
// the invoices and vehicles they touch
type TransactionService struct {
	scope          TransactionScope
	reconciler     *PaymentReconciliationService
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(scope TransactionScope, reconciler *PaymentReconciliationService, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		scope:      scope,
		reconciler: reconciler,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransactionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Record creates a transaction. An incoming transaction linked to an invoice
// reconciles it before returning; an outgoing one linked to a cost record
// stamps that record's payment date.
func (s *TransactionService) Record(ctx context.Context, req RecordTransactionRequest) (*TransactionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		"direction", string(req.Direction),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	t, err := finance.NewTransaction(req.Direction, req.Type, req.Amount, req.Date)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	t.Description = req.Description
	t.InvoiceID = req.InvoiceID
	t.VehicleID = req.VehicleID
	t.CustomerID = req.CustomerID
	t.VendorID = req.VendorID
	t.CostItemID = req.CostItemID
	t.VehicleStageCostID = req.VehicleStageCostID
	telemetry.SetAttributes(span, telemetry.SpanAttrTransactionID, t.ID.String())

	result, err := s.write(ctx, t.ID, func(repos TransactionalRepositories) (*finance.Transaction, *finance.Transaction, error) {
		if err := repos.Transactions().Create(ctx, t); err != nil {
			return nil, nil, fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil, t, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// Update applies a partial update and reconciles both the previous and the
// new invoice and vehicle links
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, patch finance.TransactionPatch) (*TransactionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTransactionID, id.String())

	result, err := s.write(ctx, id, func(repos TransactionalRepositories) (*finance.Transaction, *finance.Transaction, error) {
		t, err := repos.Transactions().FindByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		previous := *t
		if err := t.ApplyPatch(patch); err != nil {
			return nil, nil, err
		}
		if err := repos.Transactions().Save(ctx, t); err != nil {
			return nil, nil, fmt.Errorf("failed to save transaction: %w", err)
		}
		return &previous, t, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// Delete removes a transaction and reconciles what it was linked to
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) (*TransactionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "delete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTransactionID, id.String())

	result, err := s.write(ctx, id, func(repos TransactionalRepositories) (*finance.Transaction, *finance.Transaction, error) {
		t, err := repos.Transactions().FindByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if err := repos.Transactions().Delete(ctx, id); err != nil {
			return nil, nil, fmt.Errorf("failed to delete transaction: %w", err)
		}
		return t, nil, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// write runs mutate and the follow-up reconciliation in one transaction.
// mutate returns the transaction as it was before and after the write; either
// may be nil.
func (s *TransactionService) write(
	ctx context.Context,
	id uuid.UUID,
	mutate func(repos TransactionalRepositories) (*finance.Transaction, *finance.Transaction, error),
) (*TransactionResult, error) {
	result := &TransactionResult{
		PaymentChanges: make([]finance.PaymentChange, 0),
		VehicleTotals:  make(map[uuid.UUID]decimal.Decimal),
	}
	var events []shared.DomainEvent
	var invoiceIDs, vehicleIDs []uuid.UUID

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		before, after, err := mutate(repos)
		if err != nil {
			return err
		}
		result.Transaction = after
		invoiceIDs, vehicleIDs = affectedLinks(before, after)

		for _, invoiceID := range invoiceIDs {
			change, invEvents, err := s.reconciler.ReconcileInvoiceInTx(ctx, repos, invoiceID)
			if err != nil {
				return err
			}
			result.PaymentChanges = append(result.PaymentChanges, change)
			events = append(events, invEvents...)
		}
		for _, vehicleID := range vehicleIDs {
			total, err := s.reconciler.RecomputeVehicleReceivedInTx(ctx, repos, vehicleID)
			if err != nil {
				return err
			}
			result.VehicleTotals[vehicleID] = total
		}

		if after != nil && after.PaysCostRecord() {
			if err := stampCostRecords(ctx, repos, after); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction written",
		zap.String("transaction_id", id.String()),
		zap.Bool("deleted", result.Transaction == nil),
		zap.Int("invoices_reconciled", len(invoiceIDs)),
		zap.Int("vehicles_recomputed", len(vehicleIDs)),
	)

	events = append(events, finance.NewTransactionRecordedEvent(id, invoiceIDs, vehicleIDs, result.Transaction == nil))
	if s.eventPublisher != nil {
		// Errors are logged by the event bus, not propagated
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	return result, nil
}

// affectedLinks collects the invoices and vehicles whose receipts may have
// moved: every link of an incoming transaction before or after the write
func affectedLinks(before, after *finance.Transaction) ([]uuid.UUID, []uuid.UUID) {
	var invoiceIDs, vehicleIDs []uuid.UUID
	seenInv := make(map[uuid.UUID]struct{})
	seenVeh := make(map[uuid.UUID]struct{})
	for _, t := range []*finance.Transaction{before, after} {
		if t == nil || !t.IsIncoming() {
			continue
		}
		if t.InvoiceID != nil {
			if _, ok := seenInv[*t.InvoiceID]; !ok {
				seenInv[*t.InvoiceID] = struct{}{}
				invoiceIDs = append(invoiceIDs, *t.InvoiceID)
			}
		}
		if t.VehicleID != nil {
			if _, ok := seenVeh[*t.VehicleID]; !ok {
				seenVeh[*t.VehicleID] = struct{}{}
				vehicleIDs = append(vehicleIDs, *t.VehicleID)
			}
		}
	}
	return invoiceIDs, vehicleIDs
}

// stampCostRecords copies the transaction date onto the cost item and the
// vehicle stage cost it pays. The sync never runs the other way.
func stampCostRecords(ctx context.Context, repos TransactionalRepositories, t *finance.Transaction) error {
	if t.CostItemID != nil {
		item, err := repos.CostInvoices().FindItemByID(ctx, *t.CostItemID)
		if err != nil {
			return fmt.Errorf("failed to load cost item %s: %w", *t.CostItemID, err)
		}
		item.MarkPaid(t.Date)
		if err := repos.CostInvoices().SaveItem(ctx, item); err != nil {
			return fmt.Errorf("failed to stamp cost item payment date: %w", err)
		}
	}
	if t.VehicleStageCostID != nil {
		cost, err := repos.StageCosts().FindByID(ctx, *t.VehicleStageCostID)
		if err != nil {
			return fmt.Errorf("failed to load vehicle stage cost %s: %w", *t.VehicleStageCostID, err)
		}
		cost.MarkPaid(t.Date)
		if err := repos.StageCosts().Save(ctx, cost); err != nil {
			return fmt.Errorf("failed to stamp vehicle stage cost payment date: %w", err)
		}
	}
	return nil
}
