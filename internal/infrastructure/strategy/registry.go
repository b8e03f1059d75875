package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
)

// StrategyRegistry manages allocation strategy registrations
type StrategyRegistry struct {
	mu                   sync.RWMutex
	allocationStrategies map[string]finance.AllocationStrategy
	defaultAllocation    string
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		allocationStrategies: make(map[string]finance.AllocationStrategy),
	}
}

// RegisterAllocationStrategy registers an allocation strategy
func (r *StrategyRegistry) RegisterAllocationStrategy(s finance.AllocationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.allocationStrategies[name]; exists {
		return fmt.Errorf("%w: allocation strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.allocationStrategies[name] = s
	return nil
}

// GetAllocationStrategy returns an allocation strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetAllocationStrategy(name string) (finance.AllocationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultAllocation
		if name == "" {
			return nil, fmt.Errorf("%w: no default allocation strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.allocationStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: allocation strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// GetAllocationStrategyOrDefault returns an allocation strategy by name, or the default if not found
func (r *StrategyRegistry) GetAllocationStrategyOrDefault(name string) finance.AllocationStrategy {
	s, err := r.GetAllocationStrategy(name)
	if err != nil {
		s, _ = r.GetAllocationStrategy("")
	}
	return s
}

// ListAllocationStrategies returns all registered allocation strategy names
func (r *StrategyRegistry) ListAllocationStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.allocationStrategies))
	for name := range r.allocationStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterAllocationStrategy removes an allocation strategy
func (r *StrategyRegistry) UnregisterAllocationStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.allocationStrategies[name]; !exists {
		return fmt.Errorf("%w: allocation strategy '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.allocationStrategies, name)

	if r.defaultAllocation == name {
		r.defaultAllocation = ""
	}
	return nil
}

// SetDefaultAllocation sets the default allocation strategy
func (r *StrategyRegistry) SetDefaultAllocation(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.allocationStrategies[name]; !exists {
		return fmt.Errorf("%w: allocation strategy '%s' not found", shared.ErrNotFound, name)
	}
	r.defaultAllocation = name
	return nil
}

// GetDefaultAllocation returns the default allocation strategy name
func (r *StrategyRegistry) GetDefaultAllocation() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultAllocation
}
