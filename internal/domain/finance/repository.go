package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRepository persists invoices together with their charge lines
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]Invoice, error)
	Create(ctx context.Context, invoice *Invoice) error
	// Save updates the invoice and replaces its charge lines wholesale
	Save(ctx context.Context, invoice *Invoice) error
}

// ChargeTypeRepository persists charge types
type ChargeTypeRepository interface {
	FindByNormalizedName(ctx context.Context, normalized string) (*ChargeType, error)
	Create(ctx context.Context, chargeType *ChargeType) error
}

// SharedInvoiceRepository persists shared invoices and their allocation rows
type SharedInvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SharedInvoice, error)
	Create(ctx context.Context, invoice *SharedInvoice) error
	// Save updates the shared invoice and replaces its allocation rows wholesale
	Save(ctx context.Context, invoice *SharedInvoice) error
	// SumAllocationsForVehicle adds up the vehicle's allocation across every shared invoice
	SumAllocationsForVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error)
}

// ContainerInvoiceRepository persists container invoices and their mirrored rows
type ContainerInvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ContainerInvoice, error)
	Create(ctx context.Context, invoice *ContainerInvoice) error
}

// CostInvoiceRepository persists cost invoices and cost items
type CostInvoiceRepository interface {
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*CostInvoice, error)
	// FindByInvoiceIDForUpdate row-locks the cost invoice where the store supports it
	FindByInvoiceIDForUpdate(ctx context.Context, invoiceID uuid.UUID) (*CostInvoice, error)
	Create(ctx context.Context, costInvoice *CostInvoice) error
	// SaveWithLock writes the derived fields if the stored version is Version-1
	SaveWithLock(ctx context.Context, costInvoice *CostInvoice) error
	AddItem(ctx context.Context, item *CostItem) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*CostItem, error)
	SaveItem(ctx context.Context, item *CostItem) error
}

// TransactionRepository persists transactions and aggregates receipts
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Create(ctx context.Context, transaction *Transaction) error
	Save(ctx context.Context, transaction *Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	SumIncomingForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	SumIncomingForVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error)
}

// VehicleShippingStageRepository persists the per-vehicle shipping stage singleton
type VehicleShippingStageRepository interface {
	FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*VehicleShippingStage, error)
	// UpsertTotalReceived creates the row with stage if absent, otherwise updates totalReceived only
	UpsertTotalReceived(ctx context.Context, stage *VehicleShippingStage) error
}

// VehicleStageCostRepository persists vehicle stage costs
type VehicleStageCostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VehicleStageCost, error)
	Save(ctx context.Context, cost *VehicleStageCost) error
}

// SequenceGenerator issues human-readable document numbers. It must run
// inside the transaction that inserts the numbered row.
type SequenceGenerator interface {
	NextNumber(ctx context.Context, scope SequenceScope, spec SequenceSpec) (string, error)
	ReserveNumbers(ctx context.Context, scope SequenceScope, spec SequenceSpec, count int) ([]string, error)
}
