package finance

import (
	"time"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultShippingStage is used when a shipping stage row is created implicitly
const DefaultShippingStage = "PURCHASE"

// VehicleShippingStage is the per-vehicle shipping stage singleton. Only the
// received total is maintained here.
type VehicleShippingStage struct {
	shared.BaseEntity
	VehicleID     uuid.UUID
	Stage         string
	TotalReceived decimal.Decimal
}

// NewVehicleShippingStage creates a stage row for a vehicle
func NewVehicleShippingStage(vehicleID uuid.UUID, stage string) *VehicleShippingStage {
	if stage == "" {
		stage = DefaultShippingStage
	}
	return &VehicleShippingStage{
		BaseEntity:    shared.NewBaseEntity(),
		VehicleID:     vehicleID,
		Stage:         stage,
		TotalReceived: decimal.Zero,
	}
}

// SetTotalReceived overwrites the received aggregate
func (s *VehicleShippingStage) SetTotalReceived(total decimal.Decimal) {
	s.TotalReceived = RoundMoney(total)
	s.Touch()
}

// VehicleStageCost is a cost booked against a vehicle shipping stage
type VehicleStageCost struct {
	shared.BaseEntity
	VehicleID   uuid.UUID
	Stage       string
	Description string
	Amount      decimal.Decimal
	VendorID    *uuid.UUID
	PaymentDate *time.Time
}

// MarkPaid stamps the payment date
func (c *VehicleStageCost) MarkPaid(date time.Time) {
	c.PaymentDate = &date
	c.Touch()
}
