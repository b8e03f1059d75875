package models

import (
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SharedInvoiceVehicleModel is the persistence model for one allocation row
type SharedInvoiceVehicleModel struct {
	BaseModel
	SharedInvoiceID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_shared_invoice_vehicle,priority:1"`
	VehicleID       uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_shared_invoice_vehicle,priority:2"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	// Position keeps the caller's vehicle order
	Position int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SharedInvoiceVehicleModel) TableName() string {
	return "shared_invoice_vehicles"
}

// ToDomain converts the persistence model to a domain SharedInvoiceVehicle
func (m *SharedInvoiceVehicleModel) ToDomain() finance.SharedInvoiceVehicle {
	return finance.SharedInvoiceVehicle{
		BaseEntity:      m.BaseModel.ToDomain(),
		SharedInvoiceID: m.SharedInvoiceID,
		VehicleID:       m.VehicleID,
		AllocatedAmount: finance.RoundMoney(m.AllocatedAmount),
	}
}

// FromDomain populates the persistence model from a domain SharedInvoiceVehicle
func (m *SharedInvoiceVehicleModel) FromDomain(v finance.SharedInvoiceVehicle) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.SharedInvoiceID = v.SharedInvoiceID
	m.VehicleID = v.VehicleID
	m.AllocatedAmount = v.AllocatedAmount
}

// SharedInvoiceModel is the persistence model for the SharedInvoice aggregate root
type SharedInvoiceModel struct {
	AggregateModel
	Type             string                        `gorm:"type:varchar(50);not null;index"`
	InvoiceNumber    string                        `gorm:"type:varchar(50);not null;uniqueIndex:idx_shared_invoices_invoice_number"`
	TotalAmount      decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	Description      string                        `gorm:"type:text"`
	InvoiceDate      time.Time                     `gorm:"not null"`
	AllocationMethod string                        `gorm:"type:varchar(30);not null;default:'equal'"`
	Metadata         finance.SharedInvoiceMetadata `gorm:"type:jsonb"`
	Vehicles         []SharedInvoiceVehicleModel   `gorm:"foreignKey:SharedInvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (SharedInvoiceModel) TableName() string {
	return "shared_invoices"
}

// ToDomain converts the persistence model to a domain SharedInvoice
func (m *SharedInvoiceModel) ToDomain() *finance.SharedInvoice {
	si := &finance.SharedInvoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Type:              m.Type,
		InvoiceNumber:     m.InvoiceNumber,
		TotalAmount:       finance.RoundMoney(m.TotalAmount),
		Description:       m.Description,
		InvoiceDate:       m.InvoiceDate,
		AllocationMethod:  m.AllocationMethod,
		Metadata:          m.Metadata,
		Vehicles:          make([]finance.SharedInvoiceVehicle, 0, len(m.Vehicles)),
	}
	for i := range m.Vehicles {
		si.Vehicles = append(si.Vehicles, m.Vehicles[i].ToDomain())
	}
	return si
}

// FromDomain populates the persistence model from a domain SharedInvoice
func (m *SharedInvoiceModel) FromDomain(si *finance.SharedInvoice) {
	m.FromDomainAggregateRoot(si.BaseAggregateRoot)
	m.Type = si.Type
	m.InvoiceNumber = si.InvoiceNumber
	m.TotalAmount = si.TotalAmount
	m.Description = si.Description
	m.InvoiceDate = si.InvoiceDate
	m.AllocationMethod = si.AllocationMethod
	m.Metadata = si.Metadata
	m.Vehicles = SharedInvoiceVehicleModelsFromDomain(si.Vehicles)
}

// SharedInvoiceModelFromDomain creates a new persistence model from a domain SharedInvoice
func SharedInvoiceModelFromDomain(si *finance.SharedInvoice) *SharedInvoiceModel {
	m := &SharedInvoiceModel{}
	m.FromDomain(si)
	return m
}

// SharedInvoiceVehicleModelsFromDomain maps allocation rows in order
func SharedInvoiceVehicleModelsFromDomain(rows []finance.SharedInvoiceVehicle) []SharedInvoiceVehicleModel {
	out := make([]SharedInvoiceVehicleModel, len(rows))
	for i := range rows {
		out[i].FromDomain(rows[i])
		out[i].Position = i
	}
	return out
}

// ContainerInvoiceVehicleModel mirrors one shared invoice allocation row
type ContainerInvoiceVehicleModel struct {
	BaseModel
	ContainerInvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	VehicleID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	AllocatedAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (ContainerInvoiceVehicleModel) TableName() string {
	return "container_invoice_vehicles"
}

// ContainerInvoiceModel is the persistence model for the ContainerInvoice aggregate root
type ContainerInvoiceModel struct {
	AggregateModel
	InvoiceNumber   string                         `gorm:"type:varchar(50);not null;uniqueIndex:idx_container_invoices_invoice_number"`
	CustomerID      uuid.UUID                      `gorm:"type:uuid;not null;index"`
	SharedInvoiceID uuid.UUID                      `gorm:"type:uuid;not null;index"`
	TotalAmount     decimal.Decimal                `gorm:"type:decimal(18,2);not null"`
	TaxEnabled      bool                           `gorm:"not null;default:false"`
	TaxRate         *decimal.Decimal               `gorm:"type:decimal(9,4)"`
	Vehicles        []ContainerInvoiceVehicleModel `gorm:"foreignKey:ContainerInvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (ContainerInvoiceModel) TableName() string {
	return "container_invoices"
}

// ToDomain converts the persistence model to a domain ContainerInvoice
func (m *ContainerInvoiceModel) ToDomain() *finance.ContainerInvoice {
	ci := &finance.ContainerInvoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		CustomerID:        m.CustomerID,
		SharedInvoiceID:   m.SharedInvoiceID,
		TotalAmount:       finance.RoundMoney(m.TotalAmount),
		TaxEnabled:        m.TaxEnabled,
		TaxRate:           m.TaxRate,
		Vehicles:          make([]finance.ContainerInvoiceVehicle, 0, len(m.Vehicles)),
	}
	for _, v := range m.Vehicles {
		ci.Vehicles = append(ci.Vehicles, finance.ContainerInvoiceVehicle{
			BaseEntity:         v.BaseModel.ToDomain(),
			ContainerInvoiceID: v.ContainerInvoiceID,
			VehicleID:          v.VehicleID,
			AllocatedAmount:    finance.RoundMoney(v.AllocatedAmount),
		})
	}
	return ci
}

// FromDomain populates the persistence model from a domain ContainerInvoice
func (m *ContainerInvoiceModel) FromDomain(ci *finance.ContainerInvoice) {
	m.FromDomainAggregateRoot(ci.BaseAggregateRoot)
	m.InvoiceNumber = ci.InvoiceNumber
	m.CustomerID = ci.CustomerID
	m.SharedInvoiceID = ci.SharedInvoiceID
	m.TotalAmount = ci.TotalAmount
	m.TaxEnabled = ci.TaxEnabled
	m.TaxRate = ci.TaxRate
	m.Vehicles = make([]ContainerInvoiceVehicleModel, len(ci.Vehicles))
	for i, v := range ci.Vehicles {
		m.Vehicles[i].FromDomainBaseEntity(v.BaseEntity)
		m.Vehicles[i].ContainerInvoiceID = v.ContainerInvoiceID
		m.Vehicles[i].VehicleID = v.VehicleID
		m.Vehicles[i].AllocatedAmount = v.AllocatedAmount
	}
}

// ContainerInvoiceModelFromDomain creates a new persistence model from a domain ContainerInvoice
func ContainerInvoiceModelFromDomain(ci *finance.ContainerInvoice) *ContainerInvoiceModel {
	m := &ContainerInvoiceModel{}
	m.FromDomain(ci)
	return m
}
