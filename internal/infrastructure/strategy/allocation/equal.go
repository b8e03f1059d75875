package allocation

import (
	"context"

	"github.com/autoexport/backend/internal/domain/finance"
)

// EqualAllocationStrategy splits a total evenly, rounding each share to cents
type EqualAllocationStrategy struct{}

// NewEqualAllocationStrategy creates a new equal-split strategy
func NewEqualAllocationStrategy() *EqualAllocationStrategy {
	return &EqualAllocationStrategy{}
}

// Name returns the strategy name
func (s *EqualAllocationStrategy) Name() string {
	return finance.AllocationMethodEqual
}

// Description describes the strategy
func (s *EqualAllocationStrategy) Description() string {
	return "Split the total evenly across vehicles, each share rounded to cents"
}

// Allocate ignores any requested amounts
func (s *EqualAllocationStrategy) Allocate(_ context.Context, req finance.AllocationRequest) ([]finance.VehicleAllocation, error) {
	return finance.AllocateEqually(req.TotalAmount, req.VehicleIDs)
}
