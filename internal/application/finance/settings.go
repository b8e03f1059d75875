package finance

import (
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// Settings are the tunables shared by the ledger services
type Settings struct {
	InvoicePrefix        string
	InvoiceFloor         int
	SequenceWidth        int
	PaymentEpsilon       decimal.Decimal
	RecomputeMaxRetries  int
	DefaultShippingStage string
	DefaultAllocation    string
}

// DefaultSettings returns the built-in numbering and tolerance settings
func DefaultSettings() Settings {
	return Settings{
		InvoicePrefix:        finance.DefaultInvoicePrefix,
		InvoiceFloor:         finance.DefaultInvoiceFloor,
		SequenceWidth:        finance.DefaultYearWidth,
		PaymentEpsilon:       finance.PaymentEpsilon,
		RecomputeMaxRetries:  3,
		DefaultShippingStage: finance.DefaultShippingStage,
		DefaultAllocation:    finance.AllocationMethodEqual,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.InvoicePrefix == "" {
		s.InvoicePrefix = d.InvoicePrefix
	}
	if s.InvoiceFloor < 1 {
		s.InvoiceFloor = d.InvoiceFloor
	}
	if s.SequenceWidth < 1 {
		s.SequenceWidth = d.SequenceWidth
	}
	if !s.PaymentEpsilon.IsPositive() {
		s.PaymentEpsilon = d.PaymentEpsilon
	}
	if s.RecomputeMaxRetries < 1 {
		s.RecomputeMaxRetries = d.RecomputeMaxRetries
	}
	if s.DefaultShippingStage == "" {
		s.DefaultShippingStage = d.DefaultShippingStage
	}
	if s.DefaultAllocation == "" {
		s.DefaultAllocation = d.DefaultAllocation
	}
	return s
}

func (s Settings) invoiceSequence() finance.SequenceSpec {
	return finance.InvoiceSequence(s.InvoicePrefix, s.InvoiceFloor)
}

func (s Settings) yearSequence(docType string, at time.Time) finance.SequenceSpec {
	return finance.YearScopedSequence(docType, at.Year(), s.SequenceWidth)
}
