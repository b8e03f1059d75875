package finance

import (
	"strings"
	"time"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the approval lifecycle of a customer invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft           InvoiceStatus = "DRAFT"
	InvoiceStatusPendingApproval InvoiceStatus = "PENDING_APPROVAL"
	InvoiceStatusApproved        InvoiceStatus = "APPROVED"
	InvoiceStatusFinalized       InvoiceStatus = "FINALIZED"
	InvoiceStatusCancelled       InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPendingApproval, InvoiceStatusApproved,
		InvoiceStatusFinalized, InvoiceStatusCancelled:
		return true
	}
	return false
}

// AllowsFinancialEdits returns true if charges and tax settings may change
func (s InvoiceStatus) AllowsFinancialEdits() bool {
	return s != InvoiceStatusFinalized && s != InvoiceStatusCancelled
}

// Invoice is a customer-facing invoice aggregate
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	CustomerID    uuid.UUID
	VehicleID     *uuid.UUID
	Status        InvoiceStatus
	TaxEnabled    bool
	TaxRate       *decimal.Decimal
	PaymentStatus PaymentStatus
	DueDate       *time.Time
	PaidAt        *time.Time
	ShareToken    string
	Notes         string
	Charges       []InvoiceCharge
}

// NewInvoice creates a draft invoice with no charges
func NewInvoice(invoiceNumber string, customerID uuid.UUID, vehicleID *uuid.UUID) (*Invoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, validationError("invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, validationError("customer ID cannot be empty")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		VehicleID:         vehicleID,
		Status:            InvoiceStatusDraft,
		PaymentStatus:     PaymentStatusPending,
		ShareToken:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Charges:           make([]InvoiceCharge, 0),
	}
	return inv, nil
}

// Totals derives subtotal, tax and total from the live charges
func (i *Invoice) Totals() InvoiceTotals {
	return ComputeInvoiceTotals(i.Charges, i.TaxEnabled, i.TaxRate)
}

// ReplaceCharges swaps the whole charge list
func (i *Invoice) ReplaceCharges(charges []InvoiceCharge) error {
	if !i.Status.AllowsFinancialEdits() {
		return invalidState("charges cannot be changed on a " + string(i.Status) + " invoice")
	}
	for idx := range charges {
		charges[idx].InvoiceID = i.ID
		charges[idx].Position = idx
	}
	i.Charges = charges
	i.markFinancialsChanged()
	return nil
}

// SetTax updates the tax settings. A nil rate disables tax computation even
// when tax is enabled.
func (i *Invoice) SetTax(enabled bool, rate *decimal.Decimal) error {
	if !i.Status.AllowsFinancialEdits() {
		return invalidState("tax settings cannot be changed on a " + string(i.Status) + " invoice")
	}
	if rate != nil && rate.IsNegative() {
		return validationError("tax rate cannot be negative")
	}
	i.TaxEnabled = enabled
	i.TaxRate = rate
	i.markFinancialsChanged()
	return nil
}

// SetDueDate changes the due date
func (i *Invoice) SetDueDate(due *time.Time) {
	i.DueDate = due
	i.Touch()
}

// Submit moves a draft invoice to approval
func (i *Invoice) Submit() error {
	return i.transition(InvoiceStatusDraft, InvoiceStatusPendingApproval)
}

// Approve approves an invoice pending approval
func (i *Invoice) Approve() error {
	return i.transition(InvoiceStatusPendingApproval, InvoiceStatusApproved)
}

// Finalize locks an approved invoice
func (i *Invoice) Finalize() error {
	return i.transition(InvoiceStatusApproved, InvoiceStatusFinalized)
}

// Cancel cancels the invoice from any non-cancelled state. This is the only
// path into the CANCELLED payment status.
func (i *Invoice) Cancel() error {
	if i.Status == InvoiceStatusCancelled {
		return invalidState("invoice is already cancelled")
	}
	previous := i.PaymentStatus
	i.Status = InvoiceStatusCancelled
	i.PaymentStatus = PaymentStatusCancelled
	i.PaidAt = nil
	i.Touch()
	i.AddDomainEvent(NewInvoicePaymentStatusChangedEvent(i, previous))
	return nil
}

func (i *Invoice) transition(from, to InvoiceStatus) error {
	if i.Status != from {
		return invalidState(
			"cannot move invoice from " + string(i.Status) + " to " + string(to))
	}
	i.Status = to
	i.Touch()
	return nil
}

func (i *Invoice) markFinancialsChanged() {
	i.Touch()
	i.AddDomainEvent(NewInvoiceFinancialsChangedEvent(i))
}

// ReconcilePayments recomputes the stored payment status from the amount
// received so far. Cancelled invoices are left untouched.
func (i *Invoice) ReconcilePayments(received decimal.Decimal, now time.Time) PaymentChange {
	return i.ReconcilePaymentsWithin(received, PaymentEpsilon, now)
}

// ReconcilePaymentsWithin is ReconcilePayments with an explicit tolerance
func (i *Invoice) ReconcilePaymentsWithin(received, epsilon decimal.Decimal, now time.Time) PaymentChange {
	change := PaymentChange{
		InvoiceID: i.ID,
		Previous:  i.PaymentStatus,
		Current:   i.PaymentStatus,
		Received:  received,
		Total:     i.Totals().Total,
	}
	if i.PaymentStatus == PaymentStatusCancelled {
		return change
	}

	next := DerivePaymentStatusWithin(received, change.Total, epsilon)
	if next == PaymentStatusPaid {
		if i.PaymentStatus != PaymentStatusPaid || i.PaidAt == nil {
			paidAt := now
			i.PaidAt = &paidAt
		}
	} else {
		i.PaidAt = nil
	}
	i.PaymentStatus = next
	change.Current = next

	if change.Changed() {
		i.Touch()
		i.AddDomainEvent(NewInvoicePaymentStatusChangedEvent(i, change.Previous))
	}
	return change
}

// EffectivePaymentStatus layers OVERDUE on top of the stored status at read time
func (i *Invoice) EffectivePaymentStatus(now time.Time) PaymentStatus {
	if i.IsOverdue(now) {
		return PaymentStatusOverdue
	}
	return i.PaymentStatus
}

// IsOverdue reports whether an unsettled invoice is past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.DueDate == nil {
		return false
	}
	if i.PaymentStatus != PaymentStatusPending && i.PaymentStatus != PaymentStatusPartiallyPaid {
		return false
	}
	return i.DueDate.Before(now)
}

// InvoicePatch is a partial update of an invoice
type InvoicePatch struct {
	Charges    shared.Optional[[]ChargeInput]    `json:"charges"`
	TaxEnabled shared.Optional[bool]             `json:"tax_enabled"`
	TaxRate    shared.Optional[*decimal.Decimal] `json:"tax_rate"`
	DueDate    shared.Optional[*time.Time]       `json:"due_date"`
	Notes      shared.Optional[string]           `json:"notes"`
}

// TouchesFinancials reports whether the patch can change the invoice total
func (p InvoicePatch) TouchesFinancials() bool {
	return p.Charges.IsSet() || p.TaxEnabled.IsSet() || p.TaxRate.IsSet()
}

// ChargeInput is a charge line as supplied by a caller, before its label is resolved
type ChargeInput struct {
	Label       string          `json:"label" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}
