package finance

import (
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeResponse represents an invoice charge line in API responses
type ChargeResponse struct {
	ID           uuid.UUID          `json:"id"`
	ChargeTypeID uuid.UUID          `json:"charge_type_id"`
	ChargeType   string             `json:"charge_type"`
	Kind         finance.ChargeKind `json:"kind"`
	Description  string             `json:"description"`
	Amount       decimal.Decimal    `json:"amount"`
}

// InvoiceResponse represents an invoice with its derived totals. PaymentStatus
// is the read-time status (OVERDUE layered on top); StoredPaymentStatus is
// what reconciliation last wrote.
type InvoiceResponse struct {
	ID                  uuid.UUID             `json:"id"`
	InvoiceNumber       string                `json:"invoice_number"`
	CustomerID          uuid.UUID             `json:"customer_id"`
	VehicleID           *uuid.UUID            `json:"vehicle_id,omitempty"`
	Status              finance.InvoiceStatus `json:"status"`
	PaymentStatus       finance.PaymentStatus `json:"payment_status"`
	StoredPaymentStatus finance.PaymentStatus `json:"stored_payment_status"`
	TaxEnabled          bool                  `json:"tax_enabled"`
	TaxRate             *decimal.Decimal      `json:"tax_rate,omitempty"`
	Subtotal            decimal.Decimal       `json:"subtotal"`
	Tax                 decimal.Decimal       `json:"tax"`
	Total               decimal.Decimal       `json:"total"`
	DueDate             *time.Time            `json:"due_date,omitempty"`
	PaidAt              *time.Time            `json:"paid_at,omitempty"`
	ShareToken          string                `json:"share_token"`
	Notes               string                `json:"notes,omitempty"`
	Charges             []ChargeResponse      `json:"charges"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	Version             int                   `json:"version"`
}

// ToInvoiceResponse converts an invoice; now drives the OVERDUE derivation
func ToInvoiceResponse(inv *finance.Invoice, now time.Time) InvoiceResponse {
	totals := inv.Totals()
	charges := make([]ChargeResponse, 0, len(inv.Charges))
	for _, c := range inv.Charges {
		charges = append(charges, ChargeResponse{
			ID:           c.ID,
			ChargeTypeID: c.ChargeTypeID,
			ChargeType:   c.ChargeTypeName,
			Kind:         c.Kind(),
			Description:  c.Description,
			Amount:       c.Amount,
		})
	}
	return InvoiceResponse{
		ID:                  inv.ID,
		InvoiceNumber:       inv.InvoiceNumber,
		CustomerID:          inv.CustomerID,
		VehicleID:           inv.VehicleID,
		Status:              inv.Status,
		PaymentStatus:       inv.EffectivePaymentStatus(now),
		StoredPaymentStatus: inv.PaymentStatus,
		TaxEnabled:          inv.TaxEnabled,
		TaxRate:             inv.TaxRate,
		Subtotal:            totals.Subtotal,
		Tax:                 totals.Tax,
		Total:               totals.Total,
		DueDate:             inv.DueDate,
		PaidAt:              inv.PaidAt,
		ShareToken:          inv.ShareToken,
		Notes:               inv.Notes,
		Charges:             charges,
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
		Version:             inv.Version,
	}
}

// CostItemResponse represents a cost line in API responses
type CostItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	VendorID        *uuid.UUID      `json:"vendor_id,omitempty"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	PaymentDeadline *time.Time      `json:"payment_deadline,omitempty"`
}

// CostInvoiceResponse represents the derived cost record of an invoice
type CostInvoiceResponse struct {
	ID           uuid.UUID          `json:"id"`
	InvoiceID    uuid.UUID          `json:"invoice_id"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
	TotalCost    decimal.Decimal    `json:"total_cost"`
	Profit       decimal.Decimal    `json:"profit"`
	Margin       decimal.Decimal    `json:"margin"`
	ROI          decimal.Decimal    `json:"roi"`
	Items        []CostItemResponse `json:"items"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Version      int                `json:"version"`
}

// ToCostInvoiceResponse converts a cost invoice
func ToCostInvoiceResponse(ci *finance.CostInvoice) CostInvoiceResponse {
	items := make([]CostItemResponse, 0, len(ci.Items))
	for _, it := range ci.Items {
		items = append(items, CostItemResponse{
			ID:              it.ID,
			Description:     it.Description,
			Amount:          it.Amount,
			Category:        it.Category,
			VendorID:        it.VendorID,
			PaymentDate:     it.PaymentDate,
			PaymentDeadline: it.PaymentDeadline,
		})
	}
	return CostInvoiceResponse{
		ID:           ci.ID,
		InvoiceID:    ci.InvoiceID,
		TotalRevenue: ci.TotalRevenue,
		TotalCost:    ci.TotalCost,
		Profit:       ci.Profit,
		Margin:       ci.Margin,
		ROI:          ci.ROI,
		Items:        items,
		UpdatedAt:    ci.UpdatedAt,
		Version:      ci.Version,
	}
}

// SharedInvoiceResponse represents a shared invoice and its allocation rows
type SharedInvoiceResponse struct {
	ID               uuid.UUID                     `json:"id"`
	Type             string                        `json:"type"`
	InvoiceNumber    string                        `json:"invoice_number"`
	TotalAmount      decimal.Decimal               `json:"total_amount"`
	AllocatedTotal   decimal.Decimal               `json:"allocated_total"`
	Description      string                        `json:"description,omitempty"`
	InvoiceDate      time.Time                     `json:"invoice_date"`
	AllocationMethod string                        `json:"allocation_method"`
	Metadata         finance.SharedInvoiceMetadata `json:"metadata"`
	Allocations      []finance.VehicleAllocation   `json:"allocations"`
	Allocation       *AllocationReport             `json:"allocation_report,omitempty"`
}

// ToSharedInvoiceResponse converts a shared invoice
func ToSharedInvoiceResponse(si *finance.SharedInvoice, report *AllocationReport) SharedInvoiceResponse {
	allocs := make([]finance.VehicleAllocation, 0, len(si.Vehicles))
	for _, v := range si.Vehicles {
		allocs = append(allocs, finance.VehicleAllocation{VehicleID: v.VehicleID, Amount: v.AllocatedAmount})
	}
	return SharedInvoiceResponse{
		ID:               si.ID,
		Type:             si.Type,
		InvoiceNumber:    si.InvoiceNumber,
		TotalAmount:      si.TotalAmount,
		AllocatedTotal:   si.AllocatedTotal(),
		Description:      si.Description,
		InvoiceDate:      si.InvoiceDate,
		AllocationMethod: si.AllocationMethod,
		Metadata:         si.Metadata,
		Allocations:      allocs,
		Allocation:       report,
	}
}

// ContainerInvoiceResponse represents a container invoice
type ContainerInvoiceResponse struct {
	ID              uuid.UUID                   `json:"id"`
	InvoiceNumber   string                      `json:"invoice_number"`
	CustomerID      uuid.UUID                   `json:"customer_id"`
	SharedInvoiceID uuid.UUID                   `json:"shared_invoice_id"`
	Subtotal        decimal.Decimal             `json:"subtotal"`
	Tax             decimal.Decimal             `json:"tax"`
	Total           decimal.Decimal             `json:"total"`
	TaxEnabled      bool                        `json:"tax_enabled"`
	TaxRate         *decimal.Decimal            `json:"tax_rate,omitempty"`
	Allocations     []finance.VehicleAllocation `json:"allocations"`
	Allocation      *AllocationReport           `json:"allocation_report,omitempty"`
}

// ToContainerInvoiceResponse converts a container invoice
func ToContainerInvoiceResponse(ci *finance.ContainerInvoice, report *AllocationReport) ContainerInvoiceResponse {
	totals := ci.Totals()
	allocs := make([]finance.VehicleAllocation, 0, len(ci.Vehicles))
	for _, v := range ci.Vehicles {
		allocs = append(allocs, finance.VehicleAllocation{VehicleID: v.VehicleID, Amount: v.AllocatedAmount})
	}
	return ContainerInvoiceResponse{
		ID:              ci.ID,
		InvoiceNumber:   ci.InvoiceNumber,
		CustomerID:      ci.CustomerID,
		SharedInvoiceID: ci.SharedInvoiceID,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Total:           totals.Total,
		TaxEnabled:      ci.TaxEnabled,
		TaxRate:         ci.TaxRate,
		Allocations:     allocs,
		Allocation:      report,
	}
}
