package models

import (
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeTypeModel is the persistence model for charge types
type ChargeTypeModel struct {
	BaseModel
	Name           string `gorm:"type:varchar(200);not null"`
	NormalizedName string `gorm:"type:varchar(200);not null;uniqueIndex:idx_charge_types_normalized_name"`
}

// TableName returns the table name for GORM
func (ChargeTypeModel) TableName() string {
	return "charge_types"
}

// ToDomain converts the persistence model to a domain ChargeType
func (m *ChargeTypeModel) ToDomain() *finance.ChargeType {
	return &finance.ChargeType{
		BaseEntity:     m.BaseModel.ToDomain(),
		Name:           m.Name,
		NormalizedName: m.NormalizedName,
	}
}

// FromDomain populates the persistence model from a domain ChargeType
func (m *ChargeTypeModel) FromDomain(t *finance.ChargeType) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Name = t.Name
	m.NormalizedName = t.NormalizedName
}

// ChargeTypeModelFromDomain creates a new persistence model from a domain ChargeType
func ChargeTypeModelFromDomain(t *finance.ChargeType) *ChargeTypeModel {
	m := &ChargeTypeModel{}
	m.FromDomain(t)
	return m
}

// InvoiceChargeModel is the persistence model for invoice charge lines
type InvoiceChargeModel struct {
	BaseModel
	InvoiceID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	ChargeTypeID uuid.UUID        `gorm:"type:uuid;not null;index"`
	ChargeType   *ChargeTypeModel `gorm:"foreignKey:ChargeTypeID;references:ID"`
	Description  string           `gorm:"type:text"`
	Amount       decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Position     int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceChargeModel) TableName() string {
	return "invoice_charges"
}

// ToDomain converts the persistence model to a domain InvoiceCharge. The
// charge type name is taken from the preloaded ChargeType.
func (m *InvoiceChargeModel) ToDomain() finance.InvoiceCharge {
	charge := finance.InvoiceCharge{
		BaseEntity:   m.BaseModel.ToDomain(),
		InvoiceID:    m.InvoiceID,
		ChargeTypeID: m.ChargeTypeID,
		Description:  m.Description,
		Amount:       finance.RoundMoney(m.Amount),
		Position:     m.Position,
	}
	if m.ChargeType != nil {
		charge.ChargeTypeName = m.ChargeType.Name
	}
	return charge
}

// FromDomain populates the persistence model from a domain InvoiceCharge
func (m *InvoiceChargeModel) FromDomain(c finance.InvoiceCharge) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.InvoiceID = c.InvoiceID
	m.ChargeTypeID = c.ChargeTypeID
	m.Description = c.Description
	m.Amount = c.Amount
	m.Position = c.Position
}

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_invoice_number"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	VehicleID     *uuid.UUID            `gorm:"type:uuid;index"`
	Status        finance.InvoiceStatus `gorm:"type:varchar(30);not null;default:'DRAFT';index"`
	TaxEnabled    bool                  `gorm:"not null;default:false"`
	TaxRate       *decimal.Decimal      `gorm:"type:decimal(9,4)"`
	PaymentStatus finance.PaymentStatus `gorm:"type:varchar(30);not null;default:'PENDING';index"`
	DueDate       *time.Time            `gorm:"index"`
	PaidAt        *time.Time
	ShareToken    string               `gorm:"type:varchar(64);index"`
	Notes         string               `gorm:"type:text"`
	Charges       []InvoiceChargeModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		CustomerID:        m.CustomerID,
		VehicleID:         m.VehicleID,
		Status:            m.Status,
		TaxEnabled:        m.TaxEnabled,
		TaxRate:           m.TaxRate,
		PaymentStatus:     m.PaymentStatus,
		DueDate:           m.DueDate,
		PaidAt:            m.PaidAt,
		ShareToken:        m.ShareToken,
		Notes:             m.Notes,
		Charges:           make([]finance.InvoiceCharge, 0, len(m.Charges)),
	}
	for i := range m.Charges {
		inv.Charges = append(inv.Charges, m.Charges[i].ToDomain())
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.VehicleID = inv.VehicleID
	m.Status = inv.Status
	m.TaxEnabled = inv.TaxEnabled
	m.TaxRate = inv.TaxRate
	m.PaymentStatus = inv.PaymentStatus
	m.DueDate = inv.DueDate
	m.PaidAt = inv.PaidAt
	m.ShareToken = inv.ShareToken
	m.Notes = inv.Notes
	m.Charges = ChargeModelsFromDomain(inv.Charges)
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// ChargeModelsFromDomain maps charge lines in order
func ChargeModelsFromDomain(charges []finance.InvoiceCharge) []InvoiceChargeModel {
	out := make([]InvoiceChargeModel, len(charges))
	for i := range charges {
		out[i].FromDomain(charges[i])
	}
	return out
}
