package allocation

import (
	"context"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ManualAllocationStrategy accepts caller-chosen shares
type ManualAllocationStrategy struct{}

// NewManualAllocationStrategy creates a new manual strategy
func NewManualAllocationStrategy() *ManualAllocationStrategy {
	return &ManualAllocationStrategy{}
}

// Name returns the strategy name
func (s *ManualAllocationStrategy) Name() string {
	return finance.AllocationMethodManual
}

// Description describes the strategy
func (s *ManualAllocationStrategy) Description() string {
	return "Use caller-supplied per-vehicle amounts that add up to the total"
}

// Allocate validates the requested shares. When VehicleIDs is given, the
// requested shares must cover exactly that vehicle set.
func (s *ManualAllocationStrategy) Allocate(_ context.Context, req finance.AllocationRequest) ([]finance.VehicleAllocation, error) {
	if len(req.VehicleIDs) > 0 && !sameVehicles(req.VehicleIDs, req.Requested) {
		return nil, shared.NewDomainError(finance.CodeAllocationMismatch,
			"manual allocations must list every selected vehicle exactly once")
	}
	return finance.AllocateManually(req.TotalAmount, req.Requested)
}

func sameVehicles(ids []uuid.UUID, requested []finance.VehicleAllocation) bool {
	if len(ids) != len(requested) {
		return false
	}
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, r := range requested {
		if _, ok := want[r.VehicleID]; !ok {
			return false
		}
	}
	return true
}
