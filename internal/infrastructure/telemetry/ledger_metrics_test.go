package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/autoexport/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

func newLedgerMetrics(t *testing.T) (*telemetry.LedgerMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	lm, err := telemetry.NewLedgerMetrics(provider.Meter("ledger"), zap.NewNop())
	require.NoError(t, err)
	return lm, reader
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	lm, err := telemetry.NewLedgerMetrics(nil, nil)
	require.Error(t, err)
	assert.Nil(t, lm)
	assert.Equal(t, "NewLedgerMetrics: meter cannot be nil", err.Error())
}

func TestLedgerMetrics_RecordAllocation(t *testing.T) {
	lm, reader := newLedgerMetrics(t)
	ctx := context.Background()

	lm.RecordAllocation(ctx, "APPLIED")
	lm.RecordAllocation(ctx, "APPLIED")
	lm.RecordAllocation(ctx, "SKIPPED_NO_INVOICES")
	lm.RecordAllocationDuration(ctx, "shared", 12*time.Millisecond)

	rm := collect(t, reader)
	values := counterValues(t, rm, "autoexport_cost_allocation_total", telemetry.AttrOutcome)
	assert.Equal(t, int64(2), values["APPLIED"])
	assert.Equal(t, int64(1), values["SKIPPED_NO_INVOICES"])

	_, ok := findMetric(rm, "autoexport_cost_allocation_duration_seconds")
	assert.True(t, ok)
}

func TestLedgerMetrics_RecordPaymentStatus(t *testing.T) {
	lm, reader := newLedgerMetrics(t)
	ctx := context.Background()

	lm.RecordPaymentStatus(ctx, "PAID")
	lm.RecordPaymentStatus(ctx, "PARTIALLY_PAID")
	lm.RecordPaymentStatus(ctx, "PAID")

	values := counterValues(t, collect(t, reader), "autoexport_payment_reconciliation_total", telemetry.AttrPaymentStatus)
	assert.Equal(t, int64(2), values["PAID"])
	assert.Equal(t, int64(1), values["PARTIALLY_PAID"])
}

func TestLedgerMetrics_CollisionsAndConflicts(t *testing.T) {
	lm, reader := newLedgerMetrics(t)
	ctx := context.Background()

	lm.RecordSequenceCollision(ctx, "invoice")
	lm.RecordRecomputeConflict(ctx)
	lm.RecordRecomputeConflict(ctx)

	rm := collect(t, reader)
	collisions := counterValues(t, rm, "autoexport_sequence_collision_total", telemetry.AttrSequence)
	assert.Equal(t, int64(1), collisions["invoice"])

	conflicts := counterValues(t, rm, "autoexport_cost_recompute_conflict_total", telemetry.AttrSequence)
	assert.Equal(t, int64(2), conflicts[""])
}
