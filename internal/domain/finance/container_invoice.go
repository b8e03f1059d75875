package finance

import (
	"strings"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContainerInvoiceVehicle mirrors a shared invoice allocation row for one vehicle
type ContainerInvoiceVehicle struct {
	shared.BaseEntity
	ContainerInvoiceID uuid.UUID
	VehicleID          uuid.UUID
	AllocatedAmount    decimal.Decimal
}

// ContainerInvoice is the customer-facing invoice for container freight
type ContainerInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string
	CustomerID      uuid.UUID
	SharedInvoiceID uuid.UUID
	TotalAmount     decimal.Decimal
	TaxEnabled      bool
	TaxRate         *decimal.Decimal
	Vehicles        []ContainerInvoiceVehicle
}

// NewContainerInvoice derives a container invoice from a CONTAINER shared
// invoice. An empty vehicleIDs selects every allocated vehicle; otherwise each
// vehicle must be allocated on the shared invoice.
func NewContainerInvoice(
	invoiceNumber string,
	customerID uuid.UUID,
	source *SharedInvoice,
	vehicleIDs []uuid.UUID,
	taxEnabled bool,
	taxRate *decimal.Decimal,
) (*ContainerInvoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, validationError("invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, validationError("customer ID cannot be empty")
	}
	if source == nil || !source.IsContainer() {
		return nil, ErrInvalidSharedInvoiceType
	}
	if taxRate != nil && taxRate.IsNegative() {
		return nil, validationError("tax rate cannot be negative")
	}
	if len(vehicleIDs) == 0 {
		vehicleIDs = source.VehicleIDs()
	}
	if err := validateVehicleIDs(vehicleIDs); err != nil {
		return nil, err
	}

	ci := &ContainerInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		SharedInvoiceID:   source.ID,
		TaxEnabled:        taxEnabled,
		TaxRate:           taxRate,
		Vehicles:          make([]ContainerInvoiceVehicle, 0, len(vehicleIDs)),
	}

	total := decimal.Zero
	for _, vehicleID := range vehicleIDs {
		amount, ok := source.AllocationFor(vehicleID)
		if !ok {
			return nil, ErrVehicleNotInSharedInvoice
		}
		ci.Vehicles = append(ci.Vehicles, ContainerInvoiceVehicle{
			BaseEntity:         shared.NewBaseEntity(),
			ContainerInvoiceID: ci.ID,
			VehicleID:          vehicleID,
			AllocatedAmount:    amount,
		})
		total = total.Add(amount)
	}
	ci.TotalAmount = total

	ci.AddDomainEvent(NewContainerInvoiceCreatedEvent(ci))
	return ci, nil
}

// Totals applies the invoice tax settings to the mirrored amount
func (c *ContainerInvoice) Totals() InvoiceTotals {
	tax := computeTax(c.TotalAmount, c.TaxEnabled, c.TaxRate)
	return InvoiceTotals{
		Subtotal: c.TotalAmount,
		Tax:      tax,
		Total:    c.TotalAmount.Add(tax),
	}
}

// VehicleIDs lists the mirrored vehicles
func (c *ContainerInvoice) VehicleIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Vehicles))
	for _, v := range c.Vehicles {
		ids = append(ids, v.VehicleID)
	}
	return ids
}
