package finance

import (
	"strings"
	"time"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionDirection tells whether money came in or went out
type TransactionDirection string

const (
	DirectionIncoming TransactionDirection = "INCOMING"
	DirectionOutgoing TransactionDirection = "OUTGOING"
)

// IsValid checks if the direction is valid
func (d TransactionDirection) IsValid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Transaction is an append-only money movement record
type Transaction struct {
	shared.BaseEntity
	Direction          TransactionDirection
	Type               string
	Amount             decimal.Decimal
	Date               time.Time
	Description        string
	InvoiceID          *uuid.UUID
	VehicleID          *uuid.UUID
	CustomerID         *uuid.UUID
	VendorID           *uuid.UUID
	CostItemID         *uuid.UUID
	VehicleStageCostID *uuid.UUID
}

// NewTransaction creates a transaction record
func NewTransaction(direction TransactionDirection, txType string, amount decimal.Decimal, date time.Time) (*Transaction, error) {
	t := &Transaction{
		BaseEntity: shared.NewBaseEntity(),
		Direction:  direction,
		Type:       strings.TrimSpace(txType),
		Amount:     RoundMoney(amount),
		Date:       date,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transaction) validate() error {
	if !t.Direction.IsValid() {
		return validationError("direction must be INCOMING or OUTGOING")
	}
	if !t.Amount.IsPositive() {
		return shared.NewDomainError(CodeInvalidAmount, "transaction amount must be greater than zero")
	}
	if t.Date.IsZero() {
		return validationError("transaction date is required")
	}
	return nil
}

// IsIncoming reports whether the transaction counts as a receipt
func (t *Transaction) IsIncoming() bool {
	return t.Direction == DirectionIncoming
}

// PaysCostRecord reports whether an outgoing transaction settles a cost line
func (t *Transaction) PaysCostRecord() bool {
	return t.Direction == DirectionOutgoing && (t.CostItemID != nil || t.VehicleStageCostID != nil)
}

// ApplyPatch applies a partial update
func (t *Transaction) ApplyPatch(p TransactionPatch) error {
	if v, ok := p.Direction.Get(); ok {
		t.Direction = v
	}
	if v, ok := p.Type.Get(); ok {
		t.Type = strings.TrimSpace(v)
	}
	if v, ok := p.Amount.Get(); ok {
		t.Amount = RoundMoney(v)
	}
	if v, ok := p.Date.Get(); ok {
		t.Date = v
	}
	if v, ok := p.Description.Get(); ok {
		t.Description = v
	}
	if v, ok := p.InvoiceID.Get(); ok {
		t.InvoiceID = v
	}
	if v, ok := p.VehicleID.Get(); ok {
		t.VehicleID = v
	}
	if v, ok := p.CustomerID.Get(); ok {
		t.CustomerID = v
	}
	if v, ok := p.VendorID.Get(); ok {
		t.VendorID = v
	}
	if v, ok := p.CostItemID.Get(); ok {
		t.CostItemID = v
	}
	if v, ok := p.VehicleStageCostID.Get(); ok {
		t.VehicleStageCostID = v
	}
	if err := t.validate(); err != nil {
		return err
	}
	t.Touch()
	return nil
}

// TransactionPatch is a partial update of a transaction
type TransactionPatch struct {
	Direction          shared.Optional[TransactionDirection] `json:"direction"`
	Type               shared.Optional[string]               `json:"type"`
	Amount             shared.Optional[decimal.Decimal]      `json:"amount"`
	Date               shared.Optional[time.Time]            `json:"date"`
	Description        shared.Optional[string]               `json:"description"`
	InvoiceID          shared.Optional[*uuid.UUID]           `json:"invoice_id"`
	VehicleID          shared.Optional[*uuid.UUID]           `json:"vehicle_id"`
	CustomerID         shared.Optional[*uuid.UUID]           `json:"customer_id"`
	VendorID           shared.Optional[*uuid.UUID]           `json:"vendor_id"`
	CostItemID         shared.Optional[*uuid.UUID]           `json:"cost_item_id"`
	VehicleStageCostID shared.Optional[*uuid.UUID]           `json:"vehicle_stage_cost_id"`
}
