package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation method names
const (
	AllocationMethodEqual  = "equal"
	AllocationMethodManual = "manual"
)

// allocationTolerance bounds how far caller-supplied shares may drift from the total
var allocationTolerance = decimal.New(1, -2)

// VehicleAllocation is one vehicle's share of a shared cost
type VehicleAllocation struct {
	VehicleID uuid.UUID       `json:"vehicle_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// AllocationRequest is the input to an allocation strategy
type AllocationRequest struct {
	TotalAmount decimal.Decimal
	VehicleIDs  []uuid.UUID
	// Requested carries caller-chosen shares for strategies that honour them
	Requested []VehicleAllocation
}

// AllocationStrategy splits a shared cost across vehicles
type AllocationStrategy interface {
	Name() string
	Allocate(ctx context.Context, req AllocationRequest) ([]VehicleAllocation, error)
}

// AllocateEqually divides total by the vehicle count and rounds each share to
// cents. The rounded shares may differ from total by up to count*0.005; the
// remainder is not pushed onto any vehicle.
func AllocateEqually(total decimal.Decimal, vehicleIDs []uuid.UUID) ([]VehicleAllocation, error) {
	if err := validateVehicleIDs(vehicleIDs); err != nil {
		return nil, err
	}
	if total.IsNegative() {
		return nil, ErrNegativeAmount
	}

	share := RoundMoney(total.Div(decimal.NewFromInt(int64(len(vehicleIDs)))))
	allocations := make([]VehicleAllocation, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		allocations = append(allocations, VehicleAllocation{VehicleID: id, Amount: share})
	}
	return allocations, nil
}

// AllocateManually validates caller-supplied shares: each one non-negative,
// one per vehicle, and summing to total within one cent.
func AllocateManually(total decimal.Decimal, requested []VehicleAllocation) ([]VehicleAllocation, error) {
	ids := make([]uuid.UUID, 0, len(requested))
	for _, r := range requested {
		ids = append(ids, r.VehicleID)
	}
	if err := validateVehicleIDs(ids); err != nil {
		return nil, err
	}

	allocations := make([]VehicleAllocation, 0, len(requested))
	sum := decimal.Zero
	for _, r := range requested {
		if r.Amount.IsNegative() {
			return nil, ErrNegativeAmount
		}
		amount := RoundMoney(r.Amount)
		sum = sum.Add(amount)
		allocations = append(allocations, VehicleAllocation{VehicleID: r.VehicleID, Amount: amount})
	}
	if sum.Sub(total).Abs().GreaterThan(allocationTolerance) {
		return nil, ErrAllocationMismatch
	}
	return allocations, nil
}

// SumAllocations adds up allocation amounts
func SumAllocations(allocations []VehicleAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	return total
}

func validateVehicleIDs(vehicleIDs []uuid.UUID) error {
	if len(vehicleIDs) == 0 {
		return ErrEmptyVehicleList
	}
	seen := make(map[uuid.UUID]struct{}, len(vehicleIDs))
	for _, id := range vehicleIDs {
		if id == uuid.Nil {
			return validationError("vehicle ID cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateVehicle
		}
		seen[id] = struct{}{}
	}
	return nil
}
