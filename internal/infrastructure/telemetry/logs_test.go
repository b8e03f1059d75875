package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{ServiceName: "test-service"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	base := zaptest.NewLogger(t)
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLoggerProvider_BridgeKeepsBaseOutput(t *testing.T) {
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(),
		logger:   zaptest.NewLogger(t),
		config:   LogsConfig{Enabled: true, ServiceName: "test-service"},
	}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.DebugLevel)
	bridged := lp.Bridge(zap.New(core), zapcore.WarnLevel)

	bridged.Info("invoice created", zap.String("invoice_number", "INV-80001"))
	bridged.Warn("allocation skipped")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "invoice created", logs.All()[0].Message)
}

func TestLevelFilterCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: core, minLevel: zapcore.WarnLevel}
	log := zap.New(filtered).With(zap.String("component", "ledger"))

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "kept", entry.Message)
		assert.Equal(t, "ledger", entry.ContextMap()["component"])
	}
	assert.False(t, filtered.Enabled(zapcore.InfoLevel))
	assert.True(t, filtered.Enabled(zapcore.ErrorLevel))
}
