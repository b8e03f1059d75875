package models

import (
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleShippingStageModel is the per-vehicle shipping stage row
type VehicleShippingStageModel struct {
	BaseModel
	VehicleID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_vehicle_shipping_stages_vehicle_id"`
	Stage         string          `gorm:"type:varchar(50);not null"`
	TotalReceived decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (VehicleShippingStageModel) TableName() string {
	return "vehicle_shipping_stages"
}

// ToDomain converts the persistence model to a domain VehicleShippingStage
func (m *VehicleShippingStageModel) ToDomain() *finance.VehicleShippingStage {
	return &finance.VehicleShippingStage{
		BaseEntity:    m.BaseModel.ToDomain(),
		VehicleID:     m.VehicleID,
		Stage:         m.Stage,
		TotalReceived: finance.RoundMoney(m.TotalReceived),
	}
}

// FromDomain populates the persistence model from a domain VehicleShippingStage
func (m *VehicleShippingStageModel) FromDomain(s *finance.VehicleShippingStage) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.VehicleID = s.VehicleID
	m.Stage = s.Stage
	m.TotalReceived = s.TotalReceived
}

// VehicleStageCostModel is a cost booked against a vehicle shipping stage
type VehicleStageCostModel struct {
	BaseModel
	VehicleID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Stage       string          `gorm:"type:varchar(50);not null"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	VendorID    *uuid.UUID      `gorm:"type:uuid;index"`
	PaymentDate *time.Time
}

// TableName returns the table name for GORM
func (VehicleStageCostModel) TableName() string {
	return "vehicle_stage_costs"
}

// ToDomain converts the persistence model to a domain VehicleStageCost
func (m *VehicleStageCostModel) ToDomain() *finance.VehicleStageCost {
	return &finance.VehicleStageCost{
		BaseEntity:  m.BaseModel.ToDomain(),
		VehicleID:   m.VehicleID,
		Stage:       m.Stage,
		Description: m.Description,
		Amount:      finance.RoundMoney(m.Amount),
		VendorID:    m.VendorID,
		PaymentDate: m.PaymentDate,
	}
}

// FromDomain populates the persistence model from a domain VehicleStageCost
func (m *VehicleStageCostModel) FromDomain(c *finance.VehicleStageCost) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.VehicleID = c.VehicleID
	m.Stage = c.Stage
	m.Description = c.Description
	m.Amount = c.Amount
	m.VendorID = c.VendorID
	m.PaymentDate = c.PaymentDate
}

// AllModels lists every model in dependency order for test schema setup
func AllModels() []interface{} {
	return []interface{}{
		&ChargeTypeModel{},
		&InvoiceModel{},
		&InvoiceChargeModel{},
		&SharedInvoiceModel{},
		&SharedInvoiceVehicleModel{},
		&ContainerInvoiceModel{},
		&ContainerInvoiceVehicleModel{},
		&CostInvoiceModel{},
		&CostItemModel{},
		&TransactionModel{},
		&VehicleShippingStageModel{},
		&VehicleStageCostModel{},
	}
}
