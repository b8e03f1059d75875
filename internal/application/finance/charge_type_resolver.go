package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ChargeTypeResolver maps free-text charge labels onto charge types, creating
// unknown ones. Lookups are memoized for the lifetime of one resolver, so build
// a new resolver per batch operation.
type ChargeTypeResolver struct {
	repo finance.ChargeTypeRepository
	memo map[string]*finance.ChargeType
}

// NewChargeTypeResolver creates a resolver bound to repo
func NewChargeTypeResolver(repo finance.ChargeTypeRepository) *ChargeTypeResolver {
	return &ChargeTypeResolver{
		repo: repo,
		memo: make(map[string]*finance.ChargeType),
	}
}

// Resolve returns the charge type for label
func (r *ChargeTypeResolver) Resolve(ctx context.Context, label string) (*finance.ChargeType, error) {
	key := finance.NormalizeChargeLabel(label)
	if key == "" {
		return nil, shared.NewDomainError(finance.CodeValidation, "charge label cannot be empty")
	}
	if ct, ok := r.memo[key]; ok {
		return ct, nil
	}

	ct, err := r.repo.FindByNormalizedName(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		ct, err = finance.NewChargeType(label)
		if err != nil {
			return nil, err
		}
		if err := r.repo.Create(ctx, ct); err != nil {
			return nil, fmt.Errorf("failed to create charge type %q: %w", ct.Name, err)
		}
	default:
		return nil, fmt.Errorf("failed to look up charge type %q: %w", label, err)
	}

	r.memo[key] = ct
	return ct, nil
}

// BuildCharges resolves every input label and returns charge lines in input order
func (r *ChargeTypeResolver) BuildCharges(ctx context.Context, invoiceID uuid.UUID, inputs []finance.ChargeInput) ([]finance.InvoiceCharge, error) {
	charges := make([]finance.InvoiceCharge, 0, len(inputs))
	for i, in := range inputs {
		ct, err := r.Resolve(ctx, in.Label)
		if err != nil {
			return nil, err
		}
		charge, err := finance.NewInvoiceCharge(invoiceID, ct, in.Description, in.Amount, i)
		if err != nil {
			return nil, err
		}
		charges = append(charges, *charge)
	}
	return charges, nil
}
