package finance

import (
	"context"

	"github.com/autoexport/backend/internal/domain/finance"
)

// TransactionScope provides transactional access to the ledger repositories.
// All repository operations executed inside fn share one database transaction
// and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all ledger repositories within a transaction.
//
// Aggregate boundary notes:
//   - Invoices owns InvoiceCharge rows; Save replaces them wholesale.
//   - SharedInvoices owns SharedInvoiceVehicle rows; Save replaces them wholesale.
//   - CostInvoices owns CostItem rows, which are appended through AddItem so
//     concurrent allocations never rewrite each other's items.
//   - Sequences must be used inside the same transaction that inserts the numbered row.
type TransactionalRepositories interface {
	Invoices() finance.InvoiceRepository
	ChargeTypes() finance.ChargeTypeRepository
	SharedInvoices() finance.SharedInvoiceRepository
	ContainerInvoices() finance.ContainerInvoiceRepository
	CostInvoices() finance.CostInvoiceRepository
	Transactions() finance.TransactionRepository
	ShippingStages() finance.VehicleShippingStageRepository
	StageCosts() finance.VehicleStageCostRepository
	Sequences() finance.SequenceGenerator
}

// Repositories is a plain bundle of repositories, used to build a NoOpTransactionScope
type Repositories struct {
	Invoices          finance.InvoiceRepository
	ChargeTypes       finance.ChargeTypeRepository
	SharedInvoices    finance.SharedInvoiceRepository
	ContainerInvoices finance.ContainerInvoiceRepository
	CostInvoices      finance.CostInvoiceRepository
	Transactions      finance.TransactionRepository
	ShippingStages    finance.VehicleShippingStageRepository
	StageCosts        finance.VehicleStageCostRepository
	Sequences         finance.SequenceGenerator
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing with mocked repositories.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Invoices() finance.InvoiceRepository { return s.repos.Invoices }

func (s *NoOpTransactionScope) ChargeTypes() finance.ChargeTypeRepository { return s.repos.ChargeTypes }

func (s *NoOpTransactionScope) SharedInvoices() finance.SharedInvoiceRepository {
	return s.repos.SharedInvoices
}

func (s *NoOpTransactionScope) ContainerInvoices() finance.ContainerInvoiceRepository {
	return s.repos.ContainerInvoices
}

func (s *NoOpTransactionScope) CostInvoices() finance.CostInvoiceRepository {
	return s.repos.CostInvoices
}

func (s *NoOpTransactionScope) Transactions() finance.TransactionRepository {
	return s.repos.Transactions
}

func (s *NoOpTransactionScope) ShippingStages() finance.VehicleShippingStageRepository {
	return s.repos.ShippingStages
}

func (s *NoOpTransactionScope) StageCosts() finance.VehicleStageCostRepository {
	return s.repos.StageCosts
}

func (s *NoOpTransactionScope) Sequences() finance.SequenceGenerator { return s.repos.Sequences }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
