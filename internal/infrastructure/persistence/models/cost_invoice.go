package models

import (
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostItemModel is the persistence model for cost invoice lines
type CostItemModel struct {
	BaseModel
	CostInvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description     string          `gorm:"type:text"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Category        string          `gorm:"type:varchar(50);index"`
	VendorID        *uuid.UUID      `gorm:"type:uuid;index"`
	PaymentDate     *time.Time
	PaymentDeadline *time.Time
}

// TableName returns the table name for GORM
func (CostItemModel) TableName() string {
	return "cost_items"
}

// ToDomain converts the persistence model to a domain CostItem
func (m *CostItemModel) ToDomain() *finance.CostItem {
	return &finance.CostItem{
		BaseEntity:      m.BaseModel.ToDomain(),
		CostInvoiceID:   m.CostInvoiceID,
		Description:     m.Description,
		Amount:          finance.RoundMoney(m.Amount),
		Category:        m.Category,
		VendorID:        m.VendorID,
		PaymentDate:     m.PaymentDate,
		PaymentDeadline: m.PaymentDeadline,
	}
}

// FromDomain populates the persistence model from a domain CostItem
func (m *CostItemModel) FromDomain(item *finance.CostItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.CostInvoiceID = item.CostInvoiceID
	m.Description = item.Description
	m.Amount = item.Amount
	m.Category = item.Category
	m.VendorID = item.VendorID
	m.PaymentDate = item.PaymentDate
	m.PaymentDeadline = item.PaymentDeadline
}

// CostItemModelFromDomain creates a new persistence model from a domain CostItem
func CostItemModelFromDomain(item *finance.CostItem) *CostItemModel {
	m := &CostItemModel{}
	m.FromDomain(item)
	return m
}

// CostInvoiceModel is the persistence model for the CostInvoice aggregate root.
// One row per invoice; Version guards concurrent recomputes.
type CostInvoiceModel struct {
	AggregateModel
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cost_invoices_invoice_id"`
	TotalRevenue decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Profit       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Margin       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ROI          decimal.Decimal `gorm:"column:roi;type:decimal(18,2);not null"`
	Items        []CostItemModel `gorm:"foreignKey:CostInvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (CostInvoiceModel) TableName() string {
	return "cost_invoices"
}

// ToDomain converts the persistence model to a domain CostInvoice
func (m *CostInvoiceModel) ToDomain() *finance.CostInvoice {
	ci := &finance.CostInvoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceID:         m.InvoiceID,
		TotalRevenue:      finance.RoundMoney(m.TotalRevenue),
		TotalCost:         finance.RoundMoney(m.TotalCost),
		Profit:            finance.RoundMoney(m.Profit),
		Margin:            finance.RoundMoney(m.Margin),
		ROI:               finance.RoundMoney(m.ROI),
		Items:             make([]finance.CostItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		ci.Items = append(ci.Items, *m.Items[i].ToDomain())
	}
	return ci
}

// FromDomain populates the persistence model from a domain CostInvoice.
// Items are written through CostInvoiceRepository.AddItem and are not mapped.
func (m *CostInvoiceModel) FromDomain(ci *finance.CostInvoice) {
	m.FromDomainAggregateRoot(ci.BaseAggregateRoot)
	m.InvoiceID = ci.InvoiceID
	m.TotalRevenue = ci.TotalRevenue
	m.TotalCost = ci.TotalCost
	m.Profit = ci.Profit
	m.Margin = ci.Margin
	m.ROI = ci.ROI
}

// CostInvoiceModelFromDomain creates a new persistence model from a domain CostInvoice
func CostInvoiceModelFromDomain(ci *finance.CostInvoice) *CostInvoiceModel {
	m := &CostInvoiceModel{}
	m.FromDomain(ci)
	return m
}
