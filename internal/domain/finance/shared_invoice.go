package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SharedInvoiceTypeContainer is the shared invoice type container invoices derive from
const SharedInvoiceTypeContainer = "CONTAINER"

// SharedInvoiceMetadata is the free-form metadata attached to a shared invoice,
// stored as JSON
type SharedInvoiceMetadata struct {
	VendorID  string `json:"vendorId,omitempty"`
	CostItems string `json:"costItems,omitempty"`
}

// ResolveVendorID parses the vendor reference
func (m SharedInvoiceMetadata) ResolveVendorID() (uuid.UUID, error) {
	raw := strings.TrimSpace(m.VendorID)
	if raw == "" {
		return uuid.Nil, ErrMissingVendor
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrMalformedVendor
	}
	return id, nil
}

// Value implements driver.Valuer for JSON storage
func (m SharedInvoiceMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSON storage
func (m *SharedInvoiceMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = SharedInvoiceMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan SharedInvoiceMetadata: unsupported type")
	}

	if len(bytes) == 0 {
		*m = SharedInvoiceMetadata{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// SharedInvoiceVehicle is one vehicle's allocation row on a shared invoice
type SharedInvoiceVehicle struct {
	shared.BaseEntity
	SharedInvoiceID uuid.UUID
	VehicleID       uuid.UUID
	AllocatedAmount decimal.Decimal
}

// SharedInvoice is a vendor bill whose cost is split across vehicles
type SharedInvoice struct {
	shared.BaseAggregateRoot
	Type             string
	InvoiceNumber    string
	TotalAmount      decimal.Decimal
	Description      string
	InvoiceDate      time.Time
	AllocationMethod string
	Metadata         SharedInvoiceMetadata
	Vehicles         []SharedInvoiceVehicle
}

// NewSharedInvoice validates and creates a shared invoice without allocations
func NewSharedInvoice(invoiceType, invoiceNumber string, total decimal.Decimal, metadata SharedInvoiceMetadata, invoiceDate time.Time) (*SharedInvoice, error) {
	invoiceType = NormalizeSharedInvoiceType(invoiceType)
	if invoiceType == "" {
		return nil, validationError("shared invoice type cannot be empty")
	}
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, validationError("invoice number cannot be empty")
	}
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}
	if _, err := metadata.ResolveVendorID(); err != nil {
		return nil, err
	}

	return &SharedInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              invoiceType,
		InvoiceNumber:     invoiceNumber,
		TotalAmount:       RoundMoney(total),
		InvoiceDate:       invoiceDate,
		AllocationMethod:  AllocationMethodEqual,
		Metadata:          metadata,
		Vehicles:          make([]SharedInvoiceVehicle, 0),
	}, nil
}

// ValidateSharedInvoiceInput runs the checks that must pass before anything
// is written: positive total, vendor present, at least one vehicle.
func ValidateSharedInvoiceInput(total decimal.Decimal, metadata SharedInvoiceMetadata, vehicleIDs []uuid.UUID) error {
	if !total.IsPositive() {
		return ErrNonPositiveTotal
	}
	if _, err := metadata.ResolveVendorID(); err != nil {
		return err
	}
	if len(vehicleIDs) == 0 {
		return ErrEmptyVehicleList
	}
	return nil
}

// NormalizeSharedInvoiceType upper-cases and trims a type label
func NormalizeSharedInvoiceType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// IsContainer reports whether this is a CONTAINER shared invoice
func (s *SharedInvoice) IsContainer() bool {
	return s.Type == SharedInvoiceTypeContainer
}

// ReplaceAllocations drops every allocation row and recreates them
func (s *SharedInvoice) ReplaceAllocations(method string, allocations []VehicleAllocation) error {
	if len(allocations) == 0 {
		return ErrEmptyVehicleList
	}
	rows := make([]SharedInvoiceVehicle, 0, len(allocations))
	for _, a := range allocations {
		rows = append(rows, SharedInvoiceVehicle{
			BaseEntity:      shared.NewBaseEntity(),
			SharedInvoiceID: s.ID,
			VehicleID:       a.VehicleID,
			AllocatedAmount: a.Amount,
		})
	}
	s.Vehicles = rows
	s.AllocationMethod = method
	s.Touch()
	return nil
}

// SetTotalAmount changes the total; allocations must be replaced afterwards
func (s *SharedInvoice) SetTotalAmount(total decimal.Decimal) error {
	if !total.IsPositive() {
		return ErrNonPositiveTotal
	}
	s.TotalAmount = RoundMoney(total)
	s.Touch()
	return nil
}

// SetMetadata replaces the metadata after checking the vendor reference
func (s *SharedInvoice) SetMetadata(metadata SharedInvoiceMetadata) error {
	if _, err := metadata.ResolveVendorID(); err != nil {
		return err
	}
	s.Metadata = metadata
	s.Touch()
	return nil
}

// VehicleIDs lists the allocated vehicles in row order
func (s *SharedInvoice) VehicleIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Vehicles))
	for _, v := range s.Vehicles {
		ids = append(ids, v.VehicleID)
	}
	return ids
}

// AllocationFor returns the allocated amount for a vehicle
func (s *SharedInvoice) AllocationFor(vehicleID uuid.UUID) (decimal.Decimal, bool) {
	for _, v := range s.Vehicles {
		if v.VehicleID == vehicleID {
			return v.AllocatedAmount, true
		}
	}
	return decimal.Zero, false
}

// AllocatedTotal sums the allocation rows
func (s *SharedInvoice) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.Vehicles {
		total = total.Add(v.AllocatedAmount)
	}
	return total
}

// SharedInvoicePatch is a partial update of a shared invoice
type SharedInvoicePatch struct {
	TotalAmount      shared.Optional[decimal.Decimal]     `json:"total_amount"`
	Description      shared.Optional[string]              `json:"description"`
	VendorID         shared.Optional[string]              `json:"vendor_id"`
	CostItems        shared.Optional[string]              `json:"cost_items"`
	VehicleIDs       shared.Optional[[]uuid.UUID]         `json:"vehicle_ids"`
	AllocationMethod shared.Optional[string]              `json:"allocation_method"`
	Allocations      shared.Optional[[]VehicleAllocation] `json:"allocations"`
}

// TouchesAllocation reports whether the allocation rows must be rebuilt
func (p SharedInvoicePatch) TouchesAllocation() bool {
	return p.TotalAmount.IsSet() || p.VehicleIDs.IsSet() || p.AllocationMethod.IsSet() || p.Allocations.IsSet()
}
