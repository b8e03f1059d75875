package finance

import (
	"context"
	"time"
)

// LedgerMetrics records business counters for the ledger services.
// telemetry.LedgerMetrics satisfies it.
type LedgerMetrics interface {
	RecordAllocation(ctx context.Context, outcome string)
	RecordAllocationDuration(ctx context.Context, sourceKind string, d time.Duration)
	RecordPaymentStatus(ctx context.Context, status string)
	RecordSequenceCollision(ctx context.Context, sequence string)
	RecordRecomputeConflict(ctx context.Context)
}

type noopLedgerMetrics struct{}

func (noopLedgerMetrics) RecordAllocation(context.Context, string)                        {}
func (noopLedgerMetrics) RecordAllocationDuration(context.Context, string, time.Duration) {}
func (noopLedgerMetrics) RecordPaymentStatus(context.Context, string)                     {}
func (noopLedgerMetrics) RecordSequenceCollision(context.Context, string)                 {}
func (noopLedgerMetrics) RecordRecomputeConflict(context.Context)                         {}

func metricsOrNoop(m LedgerMetrics) LedgerMetrics {
	if m == nil {
		return noopLedgerMetrics{}
	}
	return m
}
