package finance

import (
	"strings"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// ChargeKind tells whether a charge adds to or subtracts from an invoice subtotal
type ChargeKind string

const (
	ChargeKindAdd      ChargeKind = "ADD"
	ChargeKindSubtract ChargeKind = "SUBTRACT"
)

// subtractingLabels are matched as substrings of the folded label
var subtractingLabels = []string{"deposit", "discount"}

// NormalizeChargeLabel case-folds and trims a free-text charge label.
// It is the lookup key for charge types.
func NormalizeChargeLabel(label string) string {
	return strings.TrimSpace(cases.Fold().String(label))
}

// ClassifyChargeLabel derives the charge kind from a label
func ClassifyChargeLabel(label string) ChargeKind {
	normalized := NormalizeChargeLabel(label)
	for _, token := range subtractingLabels {
		if strings.Contains(normalized, token) {
			return ChargeKindSubtract
		}
	}
	return ChargeKindAdd
}

// ChargeType is a named charge category resolved case-insensitively from free text
type ChargeType struct {
	shared.BaseEntity
	Name           string
	NormalizedName string
}

// NewChargeType creates a charge type for a label
func NewChargeType(name string) (*ChargeType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("charge type name cannot be empty")
	}
	return &ChargeType{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		NormalizedName: NormalizeChargeLabel(name),
	}, nil
}

// Kind returns the charge kind implied by the type name
func (t *ChargeType) Kind() ChargeKind {
	return ClassifyChargeLabel(t.Name)
}

// InvoiceCharge is one line item on an invoice
type InvoiceCharge struct {
	shared.BaseEntity
	InvoiceID      uuid.UUID
	ChargeTypeID   uuid.UUID
	ChargeTypeName string
	Description    string
	Amount         decimal.Decimal
	Position       int
}

// NewInvoiceCharge creates a charge line. Amounts are stored unsigned; the
// charge type decides the sign.
func NewInvoiceCharge(invoiceID uuid.UUID, chargeType *ChargeType, description string, amount decimal.Decimal, position int) (*InvoiceCharge, error) {
	if chargeType == nil {
		return nil, validationError("charge type is required")
	}
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return &InvoiceCharge{
		BaseEntity:     shared.NewBaseEntity(),
		InvoiceID:      invoiceID,
		ChargeTypeID:   chargeType.ID,
		ChargeTypeName: chargeType.Name,
		Description:    strings.TrimSpace(description),
		Amount:         RoundMoney(amount),
		Position:       position,
	}, nil
}

// Kind returns whether the charge adds or subtracts
func (c InvoiceCharge) Kind() ChargeKind {
	return ClassifyChargeLabel(c.ChargeTypeName)
}

// SignedAmount returns the amount with the charge-kind sign applied
func (c InvoiceCharge) SignedAmount() decimal.Decimal {
	if c.Kind() == ChargeKindSubtract {
		return c.Amount.Neg()
	}
	return c.Amount
}
