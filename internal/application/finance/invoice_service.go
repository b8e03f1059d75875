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

// CreateInvoiceRequest is the input for creating an invoice
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID
	VehicleID  *uuid.UUID
	Charges    []finance.ChargeInput
	TaxEnabled bool
	TaxRate    *decimal.Decimal
	DueDate    *time.Time
	Notes      string
}

// InvoiceService handles invoice creation, charge and tax edits, and the
// approval lifecycle. Financial edits are followed by a cost recompute and a
// payment reconciliation in the same transaction.
type InvoiceService struct {
	scope          TransactionScope
	recomputer     *CostRecomputer
	reconciler     *PaymentReconciliationService
	settings       Settings
	logger         *zap.Logger
	metrics        LedgerMetrics
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	scope TransactionScope,
	recomputer *CostRecomputer,
	reconciler *PaymentReconciliationService,
	settings Settings,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		scope:      scope,
		recomputer: recomputer,
		reconciler: reconciler,
		settings:   settings.withDefaults(),
		logger:     logger,
		metrics:    noopLedgerMetrics{},
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *InvoiceService) SetMetrics(m LedgerMetrics) {
	s.metrics = metricsOrNoop(m)
}

// SetClock overrides the time source used for read-time status derivation
func (s *InvoiceService) SetClock(now func() time.Time) {
	s.now = now
}

// Create numbers and stores a new draft invoice. A numbering collision is
// returned as DUPLICATE_NUMBER and is not retried.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span, "customer_id", req.CustomerID.String())

	var invoice *finance.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.Sequences().NextNumber(ctx, finance.SequenceInvoice, s.settings.invoiceSequence())
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}
		invoice, err = finance.NewInvoice(number, req.CustomerID, req.VehicleID)
		if err != nil {
			return err
		}

		charges, err := NewChargeTypeResolver(repos.ChargeTypes()).BuildCharges(ctx, invoice.ID, req.Charges)
		if err != nil {
			return err
		}
		if err := invoice.ReplaceCharges(charges); err != nil {
			return err
		}
		if err := invoice.SetTax(req.TaxEnabled, req.TaxRate); err != nil {
			return err
		}
		invoice.SetDueDate(req.DueDate)
		invoice.Notes = req.Notes

		if err := repos.Invoices().Create(ctx, invoice); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.recordCollision(ctx, finance.SequenceInvoice, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	// Creation raises financial events only for the brand-new aggregate
	invoice.ClearDomainEvents()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
	)
	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total", invoice.Totals().Total.StringFixed(finance.MoneyPlaces)),
	)

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// Get returns an invoice with its computed totals and read-time payment status
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	var invoice *finance.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// GetCostInvoice returns the derived cost record of an invoice
func (s *InvoiceService) GetCostInvoice(ctx context.Context, invoiceID uuid.UUID) (*CostInvoiceResponse, error) {
	var ci *finance.CostInvoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ci, err = repos.CostInvoices().FindByInvoiceID(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToCostInvoiceResponse(ci)
	return &resp, nil
}

// Update applies a partial update. When charges or tax settings change, the
// cost invoice revenue is rewritten (materializing the cost invoice if needed)
// and the payment status is reconciled against the new total.
func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, patch finance.InvoicePatch) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, id.String(),
		"touches_financials", patch.TouchesFinancials(),
	)

	var invoice *finance.Invoice
	var events []shared.DomainEvent
	err := s.recomputer.withRetry(ctx, id, func() error {
		events = nil
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			invoice, err = repos.Invoices().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if err := s.applyPatch(ctx, repos, invoice, patch); err != nil {
				return err
			}
			if err := repos.Invoices().Save(ctx, invoice); err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}
			events = append(events, invoice.GetDomainEvents()...)
			invoice.ClearDomainEvents()

			if !patch.TouchesFinancials() {
				return nil
			}
			if _, err := s.recomputer.RecomputeInTx(ctx, repos, invoice); err != nil {
				return err
			}
			_, payEvents, err := s.reconciler.ReconcileInvoiceInTx(ctx, repos, id)
			if err != nil {
				return err
			}
			events = append(events, payEvents...)
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, events)
	// Reload so the response carries the reconciled payment status
	return s.Get(ctx, id)
}

func (s *InvoiceService) applyPatch(ctx context.Context, repos TransactionalRepositories, invoice *finance.Invoice, patch finance.InvoicePatch) error {
	if inputs, ok := patch.Charges.Get(); ok {
		charges, err := NewChargeTypeResolver(repos.ChargeTypes()).BuildCharges(ctx, invoice.ID, inputs)
		if err != nil {
			return err
		}
		if err := invoice.ReplaceCharges(charges); err != nil {
			return err
		}
	}
	if patch.TaxEnabled.IsSet() || patch.TaxRate.IsSet() {
		enabled := patch.TaxEnabled.ValueOr(invoice.TaxEnabled)
		rate := patch.TaxRate.ValueOr(invoice.TaxRate)
		if err := invoice.SetTax(enabled, rate); err != nil {
			return err
		}
	}
	if due, ok := patch.DueDate.Get(); ok {
		invoice.SetDueDate(due)
	}
	if notes, ok := patch.Notes.Get(); ok {
		invoice.Notes = notes
		invoice.Touch()
	}
	return nil
}

// Cancel cancels the invoice; its payment status becomes CANCELLED
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, "cancel", (*finance.Invoice).Cancel)
}

// Submit sends a draft invoice for approval
func (s *InvoiceService) Submit(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, "submit", (*finance.Invoice).Submit)
}

// Approve approves an invoice pending approval
func (s *InvoiceService) Approve(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, "approve", (*finance.Invoice).Approve)
}

// Finalize locks an approved invoice against financial edits
func (s *InvoiceService) Finalize(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, "finalize", (*finance.Invoice).Finalize)
}

func (s *InvoiceService) transition(ctx context.Context, id uuid.UUID, method string, apply func(*finance.Invoice) error) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", method)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	var invoice *finance.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(invoice); err != nil {
			return err
		}
		return repos.Invoices().Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("invoice status changed",
		zap.String("invoice_id", id.String()),
		zap.String("action", method),
		zap.String("status", string(invoice.Status)),
	)
	s.publish(ctx, invoice.GetDomainEvents())
	invoice.ClearDomainEvents()

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

func (s *InvoiceService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *InvoiceService) recordCollision(ctx context.Context, scope finance.SequenceScope, err error) {
	if errors.Is(err, shared.ErrDuplicateNumber) {
		s.metrics.RecordSequenceCollision(ctx, string(scope))
	}
}
