package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostCategoryFreight tags cost items created from shared freight bills
const CostCategoryFreight = "Freight"

// CostItem is one cost line of a cost invoice
type CostItem struct {
	shared.BaseEntity
	CostInvoiceID   uuid.UUID
	Description     string
	Amount          decimal.Decimal
	Category        string
	VendorID        *uuid.UUID
	PaymentDate     *time.Time
	PaymentDeadline *time.Time
}

// NewCostItem creates a cost line
func NewCostItem(costInvoiceID uuid.UUID, description string, amount decimal.Decimal, category string, vendorID *uuid.UUID) (*CostItem, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return &CostItem{
		BaseEntity:    shared.NewBaseEntity(),
		CostInvoiceID: costInvoiceID,
		Description:   strings.TrimSpace(description),
		Amount:        RoundMoney(amount),
		Category:      category,
		VendorID:      vendorID,
	}, nil
}

// freightMarker terminates the shared invoice number so that one number is
// never found inside a longer one (-100 inside -1000).
func freightMarker(sharedInvoiceNumber string) string {
	return sharedInvoiceNumber + ";"
}

// NewFreightCostItem creates the Freight line that marks a shared invoice as
// applied to a cost invoice. The description embeds the shared invoice number.
func NewFreightCostItem(costInvoiceID uuid.UUID, sharedInvoiceNumber string, amount decimal.Decimal, vendorID uuid.UUID) (*CostItem, error) {
	return NewCostItem(
		costInvoiceID,
		fmt.Sprintf("Shared freight %s", freightMarker(sharedInvoiceNumber)),
		amount,
		CostCategoryFreight,
		&vendorID,
	)
}

// MarkPaid stamps the payment date
func (c *CostItem) MarkPaid(date time.Time) {
	c.PaymentDate = &date
	c.Touch()
}

// IsFreightMarkerFor reports whether this item records the given shared invoice
func (c CostItem) IsFreightMarkerFor(sharedInvoiceNumber string) bool {
	return c.Category == CostCategoryFreight &&
		sharedInvoiceNumber != "" &&
		strings.Contains(c.Description, freightMarker(sharedInvoiceNumber))
}

// Profitability is the derived cost/profit view of an invoice
type Profitability struct {
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Profit  decimal.Decimal
	Margin  decimal.Decimal
	ROI     decimal.Decimal
}

// ComputeProfitability derives profit, margin and ROI. Zero revenue yields a
// zero margin and zero cost yields a zero ROI.
func ComputeProfitability(revenue, cost decimal.Decimal) Profitability {
	profit := revenue.Sub(cost)
	margin := decimal.Zero
	if revenue.IsPositive() {
		margin = profit.Div(revenue).Mul(hundred)
	}
	roi := decimal.Zero
	if cost.IsPositive() {
		roi = profit.Div(cost).Mul(hundred)
	}
	return Profitability{
		Revenue: revenue,
		Cost:    cost,
		Profit:  RoundMoney(profit),
		Margin:  RoundMoney(margin),
		ROI:     RoundMoney(roi),
	}
}

// CostInvoice is the derived financial record attached 1:1 to an invoice
type CostInvoice struct {
	shared.BaseAggregateRoot
	InvoiceID    uuid.UUID
	TotalRevenue decimal.Decimal
	TotalCost    decimal.Decimal
	Profit       decimal.Decimal
	Margin       decimal.Decimal
	ROI          decimal.Decimal
	Items        []CostItem
}

// NewCostInvoice materializes a cost invoice seeded from the invoice revenue
// with no cost recorded yet
func NewCostInvoice(invoiceID uuid.UUID, revenue decimal.Decimal) *CostInvoice {
	ci := &CostInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         invoiceID,
		Items:             make([]CostItem, 0),
	}
	ci.ApplyProfitability(ComputeProfitability(revenue, decimal.Zero))
	return ci
}

// ApplyProfitability overwrites the derived fields
func (c *CostInvoice) ApplyProfitability(p Profitability) {
	c.TotalRevenue = p.Revenue
	c.TotalCost = p.Cost
	c.Profit = p.Profit
	c.Margin = p.Margin
	c.ROI = p.ROI
	c.Touch()
}

// ItemsTotal sums every cost item
func (c *CostInvoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// HasFreightMarker reports whether a shared invoice has already been applied
func (c *CostInvoice) HasFreightMarker(sharedInvoiceNumber string) bool {
	for _, item := range c.Items {
		if item.IsFreightMarkerFor(sharedInvoiceNumber) {
			return true
		}
	}
	return false
}

// AddItem appends a cost item owned by this cost invoice
func (c *CostInvoice) AddItem(item CostItem) {
	item.CostInvoiceID = c.ID
	c.Items = append(c.Items, item)
}
