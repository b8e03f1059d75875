package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state of an invoice
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusOverdue       PaymentStatus = "OVERDUE"
	PaymentStatusCancelled     PaymentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartiallyPaid, PaymentStatusPaid,
		PaymentStatusOverdue, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// DerivePaymentStatus maps received vs total onto PENDING, PARTIALLY_PAID or PAID.
// A non-positive receipt is always PENDING, including against a zero total.
func DerivePaymentStatus(received, total decimal.Decimal) PaymentStatus {
	return DerivePaymentStatusWithin(received, total, PaymentEpsilon)
}

// DerivePaymentStatusWithin is DerivePaymentStatus with an explicit tolerance
func DerivePaymentStatusWithin(received, total, epsilon decimal.Decimal) PaymentStatus {
	if !received.IsPositive() {
		return PaymentStatusPending
	}
	if received.Sub(total).GreaterThanOrEqual(epsilon.Neg()) {
		return PaymentStatusPaid
	}
	return PaymentStatusPartiallyPaid
}

// PaymentChange describes the outcome of reconciling one invoice
type PaymentChange struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Previous  PaymentStatus   `json:"previous"`
	Current   PaymentStatus   `json:"current"`
	Received  decimal.Decimal `json:"received"`
	Total     decimal.Decimal `json:"total"`
}

// Changed reports whether the status moved
func (c PaymentChange) Changed() bool {
	return c.Previous != c.Current
}
