package models

import (
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for money movements
type TransactionModel struct {
	BaseModel
	Direction          finance.TransactionDirection `gorm:"type:varchar(20);not null;index"`
	Type               string                       `gorm:"type:varchar(50)"`
	Amount             decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	Date               time.Time                    `gorm:"not null;index"`
	Description        string                       `gorm:"type:text"`
	InvoiceID          *uuid.UUID                   `gorm:"type:uuid;index"`
	VehicleID          *uuid.UUID                   `gorm:"type:uuid;index"`
	CustomerID         *uuid.UUID                   `gorm:"type:uuid;index"`
	VendorID           *uuid.UUID                   `gorm:"type:uuid;index"`
	CostItemID         *uuid.UUID                   `gorm:"type:uuid;index"`
	VehicleStageCostID *uuid.UUID                   `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *finance.Transaction {
	return &finance.Transaction{
		BaseEntity:         m.BaseModel.ToDomain(),
		Direction:          m.Direction,
		Type:               m.Type,
		Amount:             finance.RoundMoney(m.Amount),
		Date:               m.Date,
		Description:        m.Description,
		InvoiceID:          m.InvoiceID,
		VehicleID:          m.VehicleID,
		CustomerID:         m.CustomerID,
		VendorID:           m.VendorID,
		CostItemID:         m.CostItemID,
		VehicleStageCostID: m.VehicleStageCostID,
	}
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *finance.Transaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Direction = t.Direction
	m.Type = t.Type
	m.Amount = t.Amount
	m.Date = t.Date
	m.Description = t.Description
	m.InvoiceID = t.InvoiceID
	m.VehicleID = t.VehicleID
	m.CustomerID = t.CustomerID
	m.VendorID = t.VendorID
	m.CostItemID = t.CostItemID
	m.VehicleStageCostID = t.VehicleStageCostID
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *finance.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
