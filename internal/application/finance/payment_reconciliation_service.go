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

// PaymentReconciliationService derives invoice payment status from the
// incoming transactions linked to the invoice, and maintains the per-vehicle
// received total.
type PaymentReconciliationService struct {
	scope          TransactionScope
	logger         *zap.Logger
	metrics        LedgerMetrics
	eventPublisher shared.EventPublisher
	epsilon        decimal.Decimal
	defaultStage   string
	now            func() time.Time
}

// NewPaymentReconciliationService creates a new PaymentReconciliationService
func NewPaymentReconciliationService(scope TransactionScope, settings Settings, logger *zap.Logger) *PaymentReconciliationService {
	settings = settings.withDefaults()
	return &PaymentReconciliationService{
		scope:        scope,
		logger:       logger,
		metrics:      noopLedgerMetrics{},
		epsilon:      settings.PaymentEpsilon,
		defaultStage: settings.DefaultShippingStage,
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PaymentReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *PaymentReconciliationService) SetMetrics(m LedgerMetrics) {
	s.metrics = metricsOrNoop(m)
}

// SetClock overrides the time source used for paidAt
func (s *PaymentReconciliationService) SetClock(now func() time.Time) {
	s.now = now
}

// ReconcileInvoice recomputes one invoice's payment status in its own transaction
func (s *PaymentReconciliationService) ReconcileInvoice(ctx context.Context, invoiceID uuid.UUID) (finance.PaymentChange, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_reconciliation", "reconcile_invoice")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	var change finance.PaymentChange
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		change, events, err = s.ReconcileInvoiceInTx(ctx, repos, invoiceID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return finance.PaymentChange{}, err
	}
	s.publish(ctx, events)
	return change, nil
}

// ReconcileInvoiceInTx recomputes the payment status inside an open
// transaction. The raised domain events are returned so the caller can
// publish them after commit.
func (s *PaymentReconciliationService) ReconcileInvoiceInTx(ctx context.Context, repos TransactionalRepositories, invoiceID uuid.UUID) (finance.PaymentChange, []shared.DomainEvent, error) {
	invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
	if err != nil {
		return finance.PaymentChange{}, nil, fmt.Errorf("failed to load invoice %s: %w", invoiceID, err)
	}
	received, err := repos.Transactions().SumIncomingForInvoice(ctx, invoiceID)
	if err != nil {
		return finance.PaymentChange{}, nil, fmt.Errorf("failed to sum incoming transactions: %w", err)
	}

	previousPaidAt := invoice.PaidAt
	change := invoice.ReconcilePaymentsWithin(received, s.epsilon, s.now())
	if change.Changed() || !samePaidAt(previousPaidAt, invoice.PaidAt) {
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return finance.PaymentChange{}, nil, fmt.Errorf("failed to save invoice payment status: %w", err)
		}
	}
	s.metrics.RecordPaymentStatus(ctx, change.Current.String())

	s.logger.Info("invoice payment status reconciled",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("received", received.StringFixed(finance.MoneyPlaces)),
		zap.String("total", change.Total.StringFixed(finance.MoneyPlaces)),
		zap.String("previous_status", change.Previous.String()),
		zap.String("payment_status", change.Current.String()),
	)

	events := invoice.GetDomainEvents()
	invoice.ClearDomainEvents()
	return change, events, nil
}

// RecomputeVehicleReceivedInTx rewrites the vehicle's totalReceived from all
// of its incoming transactions, creating the shipping stage row if needed
func (s *PaymentReconciliationService) RecomputeVehicleReceivedInTx(ctx context.Context, repos TransactionalRepositories, vehicleID uuid.UUID) (decimal.Decimal, error) {
	total, err := repos.Transactions().SumIncomingForVehicle(ctx, vehicleID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum incoming transactions for vehicle: %w", err)
	}
	stage := finance.NewVehicleShippingStage(vehicleID, s.defaultStage)
	stage.SetTotalReceived(total)
	if err := repos.ShippingStages().UpsertTotalReceived(ctx, stage); err != nil {
		return decimal.Zero, fmt.Errorf("failed to upsert vehicle total received: %w", err)
	}
	return stage.TotalReceived, nil
}

func (s *PaymentReconciliationService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

func samePaidAt(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
