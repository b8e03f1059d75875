package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, evt)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *recordingHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func startedBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func transactionEvent() shared.DomainEvent {
	return finance.NewTransactionRecordedEvent(uuid.New(), []uuid.UUID{uuid.New()}, nil, false)
}

func TestInMemoryEventBus_PublishToSubscribedType(t *testing.T) {
	bus := startedBus(t)
	handler := newRecordingHandler(finance.EventTypeTransactionRecorded)
	bus.Subscribe(handler)

	evt := transactionEvent()
	require.NoError(t, bus.Publish(context.Background(), evt))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, evt, handled[0])
}

func TestInMemoryEventBus_IgnoresOtherTypes(t *testing.T) {
	bus := startedBus(t)
	handler := newRecordingHandler(finance.EventTypeContainerInvoiceCreated)
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), transactionEvent()))

	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_WildcardReceivesEverything(t *testing.T) {
	bus := startedBus(t)
	handler := newRecordingHandler()
	bus.Subscribe(handler)

	inv := &finance.Invoice{}
	inv.ID = uuid.New()
	require.NoError(t, bus.Publish(context.Background(),
		transactionEvent(),
		finance.NewInvoiceFinancialsChangedEvent(inv),
	))

	assert.Len(t, handler.getHandled(), 2)
}

func TestInMemoryEventBus_WildcardAndTypedSubscriptionDispatchOnce(t *testing.T) {
	bus := startedBus(t)
	handler := newRecordingHandler()
	bus.Subscribe(handler)
	bus.Subscribe(handler, finance.EventTypeTransactionRecorded)
	bus.Subscribe(handler, finance.EventTypeTransactionRecorded)

	require.NoError(t, bus.Publish(context.Background(), transactionEvent()))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := startedBus(t)
	failing := newRecordingHandler(finance.EventTypeTransactionRecorded)
	failing.setError(errors.New("cache unavailable"))
	healthy := newRecordingHandler(finance.EventTypeTransactionRecorded)
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), transactionEvent())

	require.NoError(t, err)
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := startedBus(t)
	panicking := newRecordingHandler(finance.EventTypeTransactionRecorded)
	panicking.panicWith = "boom"
	healthy := newRecordingHandler(finance.EventTypeTransactionRecorded)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	assert.NotPanics(t, func() {
		require.NoError(t, bus.Publish(context.Background(), transactionEvent()))
	})
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := startedBus(t)
	handler := newRecordingHandler(finance.EventTypeTransactionRecorded)
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), transactionEvent()))

	assert.Empty(t, handler.getHandled())
	assert.Equal(t, 0, bus.registry.Count())
}

func TestInMemoryEventBus_DropsWhenStopped(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	handler := newRecordingHandler()
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), transactionEvent(), transactionEvent()))
	assert.Empty(t, handler.getHandled())
	assert.Equal(t, int64(2), bus.Dropped())

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), transactionEvent()))
	assert.Len(t, handler.getHandled(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	require.NoError(t, bus.Publish(context.Background(), transactionEvent()))
	assert.Len(t, handler.getHandled(), 1)
	assert.Equal(t, int64(3), bus.Dropped())
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := startedBus(t)
	handler := newRecordingHandler(finance.EventTypeTransactionRecorded)
	bus.Subscribe(handler)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), transactionEvent())
		}()
	}
	wg.Wait()

	assert.Len(t, handler.getHandled(), 20)
}

func TestHandlerRegistry_UnregisterCleansEmptyTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newRecordingHandler()
	b := newRecordingHandler()
	registry.Register(a, finance.EventTypeTransactionRecorded)
	registry.Register(b, finance.EventTypeTransactionRecorded, finance.EventTypeSharedInvoiceAllocated)

	assert.Equal(t, 2, registry.Count())

	registry.Unregister(b)

	assert.Len(t, registry.HandlersFor(finance.EventTypeTransactionRecorded), 1)
	assert.Empty(t, registry.HandlersFor(finance.EventTypeSharedInvoiceAllocated))
	_, exists := registry.byType[finance.EventTypeSharedInvoiceAllocated]
	assert.False(t, exists)
}
