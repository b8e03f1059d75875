package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics records the finance workflow counters.
type LedgerMetrics struct {
	logger *zap.Logger

	allocationTotal    *Counter
	allocationDuration *Histogram
	paymentStatusTotal *Counter
	sequenceCollisions *Counter
	recomputeConflicts *Counter
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter, logger *zap.Logger) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{logger: logger}
	var err error

	lm.allocationTotal, err = NewCounter(meter,
		"autoexport_cost_allocation_total",
		"Vehicle invoice outcomes of shared cost allocation",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	lm.allocationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "autoexport_cost_allocation_duration_seconds",
		Description: "Time spent applying one shared cost to vehicle cost invoices",
		Unit:        "s",
		Boundaries:  ServiceDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	lm.paymentStatusTotal, err = NewCounter(meter,
		"autoexport_payment_reconciliation_total",
		"Invoice payment reconciliations by resulting status",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	lm.sequenceCollisions, err = NewCounter(meter,
		"autoexport_sequence_collision_total",
		"Document numbers rejected by a unique constraint",
		"{numbers}",
	)
	if err != nil {
		return nil, err
	}

	lm.recomputeConflicts, err = NewCounter(meter,
		"autoexport_cost_recompute_conflict_total",
		"Cost invoice recomputations that lost an optimistic lock",
		"{conflicts}",
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordAllocation counts one vehicle invoice outcome.
func (lm *LedgerMetrics) RecordAllocation(ctx context.Context, outcome string) {
	lm.allocationTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordAllocationDuration records how long an allocation run took.
func (lm *LedgerMetrics) RecordAllocationDuration(ctx context.Context, sourceKind string, d time.Duration) {
	lm.allocationDuration.RecordDuration(ctx, d, AttrSourceKind.String(sourceKind))
}

// RecordPaymentStatus counts a reconciliation result.
func (lm *LedgerMetrics) RecordPaymentStatus(ctx context.Context, status string) {
	lm.paymentStatusTotal.Inc(ctx, AttrPaymentStatus.String(status))
}

// RecordSequenceCollision counts a duplicate document number.
func (lm *LedgerMetrics) RecordSequenceCollision(ctx context.Context, sequence string) {
	lm.logger.Warn("Document number collision", zap.String("sequence", sequence))
	lm.sequenceCollisions.Inc(ctx, AttrSequence.String(sequence))
}

// RecordRecomputeConflict counts a lost optimistic lock.
func (lm *LedgerMetrics) RecordRecomputeConflict(ctx context.Context) {
	lm.recomputeConflicts.Inc(ctx)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
