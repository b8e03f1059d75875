package finance

import (
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeInvoiceFinancialsChanged    = "InvoiceFinancialsChanged"
	EventTypeInvoicePaymentStatusChanged = "InvoicePaymentStatusChanged"
	EventTypeSharedInvoiceAllocated      = "SharedInvoiceAllocated"
	EventTypeContainerInvoiceCreated     = "ContainerInvoiceCreated"
	EventTypeTransactionRecorded         = "TransactionRecorded"
)

// Aggregate type constants
const (
	AggregateTypeInvoice          = "Invoice"
	AggregateTypeSharedInvoice    = "SharedInvoice"
	AggregateTypeContainerInvoice = "ContainerInvoice"
	AggregateTypeTransaction      = "Transaction"
)

// InvoiceFinancialsChangedEvent is raised when charges or tax settings change
type InvoiceFinancialsChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID  `json:"invoice_id"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
}

// NewInvoiceFinancialsChangedEvent creates the event
func NewInvoiceFinancialsChangedEvent(inv *Invoice) *InvoiceFinancialsChangedEvent {
	return &InvoiceFinancialsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceFinancialsChanged, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		VehicleID:       inv.VehicleID,
	}
}

// InvoicePaymentStatusChangedEvent is raised when the stored payment status moves
type InvoicePaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID     `json:"invoice_id"`
	PreviousStatus PaymentStatus `json:"previous_status"`
	NewStatus      PaymentStatus `json:"new_status"`
}

// NewInvoicePaymentStatusChangedEvent creates the event
func NewInvoicePaymentStatusChangedEvent(inv *Invoice, previous PaymentStatus) *InvoicePaymentStatusChangedEvent {
	return &InvoicePaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentStatusChanged, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		PreviousStatus:  previous,
		NewStatus:       inv.PaymentStatus,
	}
}

// SharedInvoiceAllocatedEvent is raised after a shared or container cost has
// been pushed into vehicle cost invoices
type SharedInvoiceAllocatedEvent struct {
	shared.BaseDomainEvent
	SharedInvoiceNumber string      `json:"shared_invoice_number"`
	VehicleIDs          []uuid.UUID `json:"vehicle_ids"`
	InvoiceIDs          []uuid.UUID `json:"invoice_ids"`
}

// NewSharedInvoiceAllocatedEvent creates the event
func NewSharedInvoiceAllocatedEvent(aggregateType string, aggregateID uuid.UUID, number string, vehicleIDs, invoiceIDs []uuid.UUID) *SharedInvoiceAllocatedEvent {
	return &SharedInvoiceAllocatedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeSharedInvoiceAllocated, aggregateType, aggregateID),
		SharedInvoiceNumber: number,
		VehicleIDs:          vehicleIDs,
		InvoiceIDs:          invoiceIDs,
	}
}

// ContainerInvoiceCreatedEvent is raised when a container invoice is created
type ContainerInvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	ContainerInvoiceID uuid.UUID       `json:"container_invoice_id"`
	SharedInvoiceID    uuid.UUID       `json:"shared_invoice_id"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

// NewContainerInvoiceCreatedEvent creates the event
func NewContainerInvoiceCreatedEvent(ci *ContainerInvoice) *ContainerInvoiceCreatedEvent {
	return &ContainerInvoiceCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeContainerInvoiceCreated, AggregateTypeContainerInvoice, ci.ID),
		ContainerInvoiceID: ci.ID,
		SharedInvoiceID:    ci.SharedInvoiceID,
		TotalAmount:        ci.TotalAmount,
	}
}

// TransactionRecordedEvent is raised when a transaction is created, edited or deleted
type TransactionRecordedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID   `json:"transaction_id"`
	InvoiceIDs    []uuid.UUID `json:"invoice_ids"`
	VehicleIDs    []uuid.UUID `json:"vehicle_ids"`
	Deleted       bool        `json:"deleted"`
}

// NewTransactionRecordedEvent creates the event
func NewTransactionRecordedEvent(transactionID uuid.UUID, invoiceIDs, vehicleIDs []uuid.UUID, deleted bool) *TransactionRecordedEvent {
	return &TransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRecorded, AggregateTypeTransaction, transactionID),
		TransactionID:   transactionID,
		InvoiceIDs:      invoiceIDs,
		VehicleIDs:      vehicleIDs,
		Deleted:         deleted,
	}
}
