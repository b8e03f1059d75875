package persistence

import (
	"context"

	appfinance "github.com/autoexport/backend/internal/application/finance"
	"github.com/autoexport/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Invoices() finance.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) ChargeTypes() finance.ChargeTypeRepository {
	return NewGormChargeTypeRepository(r.tx)
}

func (r *gormTransactionalRepositories) SharedInvoices() finance.SharedInvoiceRepository {
	return NewGormSharedInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) ContainerInvoices() finance.ContainerInvoiceRepository {
	return NewGormContainerInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) CostInvoices() finance.CostInvoiceRepository {
	return NewGormCostInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) Transactions() finance.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) ShippingStages() finance.VehicleShippingStageRepository {
	return NewGormVehicleShippingStageRepository(r.tx)
}

func (r *gormTransactionalRepositories) StageCosts() finance.VehicleStageCostRepository {
	return NewGormVehicleStageCostRepository(r.tx)
}

// Sequences returns the number generator bound to the current transaction
func (r *gormTransactionalRepositories) Sequences() finance.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appfinance.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
