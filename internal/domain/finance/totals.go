package finance

import "github.com/shopspring/decimal"

// InvoiceTotals holds the derived amounts of an invoice
type InvoiceTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeInvoiceTotals derives subtotal, tax and total from charge lines.
// Every caller that needs an invoice's effective total goes through here.
func ComputeInvoiceTotals(charges []InvoiceCharge, taxEnabled bool, taxRate *decimal.Decimal) InvoiceTotals {
	subtotal := decimal.Zero
	for _, c := range charges {
		subtotal = subtotal.Add(c.SignedAmount())
	}
	tax := computeTax(subtotal, taxEnabled, taxRate)
	return InvoiceTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// computeTax returns subtotal*rate/100 rounded to cents, or zero when tax is
// disabled or no positive rate is set.
func computeTax(subtotal decimal.Decimal, taxEnabled bool, taxRate *decimal.Decimal) decimal.Decimal {
	if !taxEnabled || taxRate == nil || taxRate.IsZero() {
		return decimal.Zero
	}
	return RoundMoney(subtotal.Mul(*taxRate).Div(hundred))
}
