package strategy

import (
	"github.com/autoexport/backend/internal/infrastructure/strategy/allocation"
)

// NewRegistryWithDefaults creates a registry holding the equal and manual
// allocation strategies, with defaultName (or "equal" when empty) as default.
func NewRegistryWithDefaults(defaultName string) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	equal := allocation.NewEqualAllocationStrategy()
	if err := r.RegisterAllocationStrategy(equal); err != nil {
		return nil, err
	}

	manual := allocation.NewManualAllocationStrategy()
	if err := r.RegisterAllocationStrategy(manual); err != nil {
		return nil, err
	}

	if defaultName == "" {
		defaultName = equal.Name()
	}
	if err := r.SetDefaultAllocation(defaultName); err != nil {
		return nil, err
	}
	return r, nil
}
