package finance

import (
	"context"
	"sync"
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockInvoiceRepository is a mock implementation of finance.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]finance.Invoice, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *finance.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockChargeTypeRepository is a mock implementation of finance.ChargeTypeRepository
type MockChargeTypeRepository struct {
	mock.Mock
}

func (m *MockChargeTypeRepository) FindByNormalizedName(ctx context.Context, normalized string) (*finance.ChargeType, error) {
	args := m.Called(ctx, normalized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.ChargeType), args.Error(1)
}

func (m *MockChargeTypeRepository) Create(ctx context.Context, chargeType *finance.ChargeType) error {
	args := m.Called(ctx, chargeType)
	return args.Error(0)
}

// MockSharedInvoiceRepository is a mock implementation of finance.SharedInvoiceRepository
type MockSharedInvoiceRepository struct {
	mock.Mock
}

func (m *MockSharedInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.SharedInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.SharedInvoice), args.Error(1)
}

func (m *MockSharedInvoiceRepository) Create(ctx context.Context, invoice *finance.SharedInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockSharedInvoiceRepository) Save(ctx context.Context, invoice *finance.SharedInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockSharedInvoiceRepository) SumAllocationsForVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockContainerInvoiceRepository is a mock implementation of finance.ContainerInvoiceRepository
type MockContainerInvoiceRepository struct {
	mock.Mock
}

func (m *MockContainerInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ContainerInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.ContainerInvoice), args.Error(1)
}

func (m *MockContainerInvoiceRepository) Create(ctx context.Context, invoice *finance.ContainerInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockCostInvoiceRepository is a mock implementation of finance.CostInvoiceRepository
type MockCostInvoiceRepository struct {
	mock.Mock
}

func (m *MockCostInvoiceRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*finance.CostInvoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CostInvoice), args.Error(1)
}

func (m *MockCostInvoiceRepository) FindByInvoiceIDForUpdate(ctx context.Context, invoiceID uuid.UUID) (*finance.CostInvoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CostInvoice), args.Error(1)
}

func (m *MockCostInvoiceRepository) Create(ctx context.Context, costInvoice *finance.CostInvoice) error {
	args := m.Called(ctx, costInvoice)
	return args.Error(0)
}

func (m *MockCostInvoiceRepository) SaveWithLock(ctx context.Context, costInvoice *finance.CostInvoice) error {
	args := m.Called(ctx, costInvoice)
	return args.Error(0)
}

func (m *MockCostInvoiceRepository) AddItem(ctx context.Context, item *finance.CostItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCostInvoiceRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*finance.CostItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CostItem), args.Error(1)
}

func (m *MockCostInvoiceRepository) SaveItem(ctx context.Context, item *finance.CostItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of finance.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *finance.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) Save(ctx context.Context, transaction *finance.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTransactionRepository) SumIncomingForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) SumIncomingForVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockVehicleShippingStageRepository is a mock implementation of finance.VehicleShippingStageRepository
type MockVehicleShippingStageRepository struct {
	mock.Mock
}

func (m *MockVehicleShippingStageRepository) FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*finance.VehicleShippingStage, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.VehicleShippingStage), args.Error(1)
}

func (m *MockVehicleShippingStageRepository) UpsertTotalReceived(ctx context.Context, stage *finance.VehicleShippingStage) error {
	args := m.Called(ctx, stage)
	return args.Error(0)
}

// MockVehicleStageCostRepository is a mock implementation of finance.VehicleStageCostRepository
type MockVehicleStageCostRepository struct {
	mock.Mock
}

func (m *MockVehicleStageCostRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.VehicleStageCost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.VehicleStageCost), args.Error(1)
}

func (m *MockVehicleStageCostRepository) Save(ctx context.Context, cost *finance.VehicleStageCost) error {
	args := m.Called(ctx, cost)
	return args.Error(0)
}

// MockSequenceGenerator is a mock implementation of finance.SequenceGenerator
type MockSequenceGenerator struct {
	mock.Mock
}

func (m *MockSequenceGenerator) NextNumber(ctx context.Context, scope finance.SequenceScope, spec finance.SequenceSpec) (string, error) {
	args := m.Called(ctx, scope, spec)
	return args.String(0), args.Error(1)
}

func (m *MockSequenceGenerator) ReserveNumbers(ctx context.Context, scope finance.SequenceScope, spec finance.SequenceSpec, count int) ([]string, error) {
	args := m.Called(ctx, scope, spec, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Verify interface compliance
var (
	_ finance.InvoiceRepository              = (*MockInvoiceRepository)(nil)
	_ finance.ChargeTypeRepository           = (*MockChargeTypeRepository)(nil)
	_ finance.SharedInvoiceRepository        = (*MockSharedInvoiceRepository)(nil)
	_ finance.ContainerInvoiceRepository     = (*MockContainerInvoiceRepository)(nil)
	_ finance.CostInvoiceRepository          = (*MockCostInvoiceRepository)(nil)
	_ finance.TransactionRepository          = (*MockTransactionRepository)(nil)
	_ finance.VehicleShippingStageRepository = (*MockVehicleShippingStageRepository)(nil)
	_ finance.VehicleStageCostRepository     = (*MockVehicleStageCostRepository)(nil)
	_ finance.SequenceGenerator              = (*MockSequenceGenerator)(nil)
)

// testRepos bundles every mock behind one NoOpTransactionScope
type testRepos struct {
	invoices          *MockInvoiceRepository
	chargeTypes       *MockChargeTypeRepository
	sharedInvoices    *MockSharedInvoiceRepository
	containerInvoices *MockContainerInvoiceRepository
	costInvoices      *MockCostInvoiceRepository
	transactions      *MockTransactionRepository
	shippingStages    *MockVehicleShippingStageRepository
	stageCosts        *MockVehicleStageCostRepository
	sequences         *MockSequenceGenerator
}

func newTestRepos() *testRepos {
	return &testRepos{
		invoices:          new(MockInvoiceRepository),
		chargeTypes:       new(MockChargeTypeRepository),
		sharedInvoices:    new(MockSharedInvoiceRepository),
		containerInvoices: new(MockContainerInvoiceRepository),
		costInvoices:      new(MockCostInvoiceRepository),
		transactions:      new(MockTransactionRepository),
		shippingStages:    new(MockVehicleShippingStageRepository),
		stageCosts:        new(MockVehicleStageCostRepository),
		sequences:         new(MockSequenceGenerator),
	}
}

func (r *testRepos) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(Repositories{
		Invoices:          r.invoices,
		ChargeTypes:       r.chargeTypes,
		SharedInvoices:    r.sharedInvoices,
		ContainerInvoices: r.containerInvoices,
		CostInvoices:      r.costInvoices,
		Transactions:      r.transactions,
		ShippingStages:    r.shippingStages,
		StageCosts:        r.stageCosts,
		Sequences:         r.sequences,
	})
}

func (r *testRepos) assertExpectations(t mock.TestingT) {
	r.invoices.AssertExpectations(t)
	r.chargeTypes.AssertExpectations(t)
	r.sharedInvoices.AssertExpectations(t)
	r.containerInvoices.AssertExpectations(t)
	r.costInvoices.AssertExpectations(t)
	r.transactions.AssertExpectations(t)
	r.shippingStages.AssertExpectations(t)
	r.stageCosts.AssertExpectations(t)
	r.sequences.AssertExpectations(t)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// recordingMetrics counts what the services report
type recordingMetrics struct {
	allocations        map[string]int
	paymentStatuses    map[string]int
	collisions         map[string]int
	recomputeConflicts int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		allocations:     make(map[string]int),
		paymentStatuses: make(map[string]int),
		collisions:      make(map[string]int),
	}
}

func (m *recordingMetrics) RecordAllocation(_ context.Context, outcome string) {
	m.allocations[outcome]++
}

func (m *recordingMetrics) RecordAllocationDuration(context.Context, string, time.Duration) {}

func (m *recordingMetrics) RecordPaymentStatus(_ context.Context, status string) {
	m.paymentStatuses[status]++
}

func (m *recordingMetrics) RecordSequenceCollision(_ context.Context, sequence string) {
	m.collisions[sequence]++
}

func (m *recordingMetrics) RecordRecomputeConflict(context.Context) {
	m.recomputeConflicts++
}

var _ LedgerMetrics = (*recordingMetrics)(nil)

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestInvoice builds an invoice with one adding charge per amount
func newTestInvoice(number string, vehicleID *uuid.UUID, amounts ...string) *finance.Invoice {
	inv, err := finance.NewInvoice(number, uuid.New(), vehicleID)
	if err != nil {
		panic(err)
	}
	charges := make([]finance.InvoiceCharge, 0, len(amounts))
	for i, amount := range amounts {
		ct, err := finance.NewChargeType("Charge " + string(rune('A'+i)))
		if err != nil {
			panic(err)
		}
		charge, err := finance.NewInvoiceCharge(inv.ID, ct, "", dec(amount), i)
		if err != nil {
			panic(err)
		}
		charges = append(charges, *charge)
	}
	if err := inv.ReplaceCharges(charges); err != nil {
		panic(err)
	}
	inv.ClearDomainEvents()
	return inv
}

func newTestSharedInvoice(number string, total string, vendorID string, vehicleIDs ...uuid.UUID) *finance.SharedInvoice {
	si, err := finance.NewSharedInvoice("CONTAINER", number, dec(total), finance.SharedInvoiceMetadata{VendorID: uuid.NewString()}, time.Now())
	if err != nil {
		panic(err)
	}
	allocations, err := finance.AllocateEqually(si.TotalAmount, vehicleIDs)
	if err != nil {
		panic(err)
	}
	if err := si.ReplaceAllocations(finance.AllocationMethodEqual, allocations); err != nil {
		panic(err)
	}
	// Stored rows may predate vendor validation
	si.Metadata.VendorID = vendorID
	return si
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
