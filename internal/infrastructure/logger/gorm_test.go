package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func TestGormLoggerWithOptions(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)
	changed, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("logs errors", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), query, errors.New("boom"))

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "SQL Error", recorded.All()[0].Message)
	})

	t.Run("ignores record not found", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, recorded.Len())
	})

	t.Run("logs slow queries", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "Slow SQL", recorded.All()[0].Message)
	})

	t.Run("carries the request id", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		reqCtx, _ := WithRequestID(ctx, zap.NewNop(), "req-9")
		gl.Trace(reqCtx, time.Now(), query, nil)

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "req-9", recorded.All()[0].ContextMap()["request_id"])
	})

	t.Run("tags slow ledger statements", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		recompute := func() (string, int64) {
			return `UPDATE "cost_invoices" SET "margin"=12.5,"version"=4 WHERE id = 'a1' AND version = 3`, 1
		}
		gl.Trace(ctx, time.Now().Add(-time.Second), recompute, nil)
		gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)

		require.Equal(t, 2, recorded.Len())
		assert.Equal(t, StatementCostRecompute, recorded.All()[0].ContextMap()["ledger_statement"])
		assert.NotContains(t, recorded.All()[1].ContextMap(), "ledger_statement")
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(ctx, time.Now(), query, errors.New("boom"))
		assert.Equal(t, 0, recorded.Len())
	})
}

func TestLedgerStatement(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{`SELECT "invoice_number" FROM "shared_invoices" WHERE invoice_number LIKE 'CONTAINER-2026-%' ESCAPE '\' ORDER BY invoice_number DESC LIMIT 1`, StatementSequenceRead},
		{`UPDATE "cost_invoices" SET "total_cost"=300,"version"=2 WHERE id = 'x' AND version = 1`, StatementCostRecompute},
		{`SELECT COALESCE(SUM(allocated_amount), 0) as total FROM "shared_invoice_vehicles" WHERE vehicle_id = 'v'`, StatementAllocationSum},
		{`SELECT * FROM "cost_invoices" WHERE invoice_id = 'i' LIMIT 1 FOR UPDATE`, StatementCostInvoiceLock},
		{`UPDATE "invoices" SET "total"=10 WHERE id = 'i'`, ""},
		{`SELECT 1`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ledgerStatement(tt.sql), tt.sql)
	}
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
