package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSharedInvoice(t *testing.T, number, total string, vehicleIDs ...uuid.UUID) *finance.SharedInvoice {
	t.Helper()
	si, err := finance.NewSharedInvoice(
		finance.SharedInvoiceTypeContainer,
		number,
		dec(total),
		finance.SharedInvoiceMetadata{VendorID: uuid.NewString(), CostItems: "ocean freight"},
		time.Now(),
	)
	require.NoError(t, err)

	allocations, err := finance.AllocateEqually(si.TotalAmount, vehicleIDs)
	require.NoError(t, err)
	require.NoError(t, si.ReplaceAllocations(finance.AllocationMethodEqual, allocations))
	return si
}

func TestGormSharedInvoiceRepository_CreateAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormSharedInvoiceRepository(db)
	ctx := context.Background()

	v1, v2, v3 := uuid.New(), uuid.New(), uuid.New()
	si := newTestSharedInvoice(t, "CONTAINER-2026-001", "300000", v1, v2, v3)
	require.NoError(t, repo.Create(ctx, si))

	found, err := repo.FindByID(ctx, si.ID)
	require.NoError(t, err)

	assert.Equal(t, "CONTAINER", found.Type)
	assert.True(t, found.IsContainer())
	assert.Equal(t, "300000.00", found.TotalAmount.StringFixed(2))
	assert.Equal(t, si.Metadata, found.Metadata)
	assert.Equal(t, []uuid.UUID{v1, v2, v3}, found.VehicleIDs())
	for _, row := range found.Vehicles {
		assert.Equal(t, "100000.00", row.AllocatedAmount.StringFixed(2))
	}

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	dup := newTestSharedInvoice(t, "CONTAINER-2026-001", "10", v1)
	assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrDuplicateNumber)
}

func TestGormSharedInvoiceRepository_SaveReplacesAllocations(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormSharedInvoiceRepository(db)
	ctx := context.Background()

	v1, v2, v3 := uuid.New(), uuid.New(), uuid.New()
	si := newTestSharedInvoice(t, "CONTAINER-2026-001", "300", v1, v2)
	require.NoError(t, repo.Create(ctx, si))

	found, err := repo.FindByID(ctx, si.ID)
	require.NoError(t, err)

	require.NoError(t, found.SetTotalAmount(dec("90")))
	allocations, err := finance.AllocateEqually(found.TotalAmount, []uuid.UUID{v3, v1})
	require.NoError(t, err)
	require.NoError(t, found.ReplaceAllocations(finance.AllocationMethodEqual, allocations))
	found.Description = "re-split"
	require.NoError(t, repo.Save(ctx, found))

	reloaded, err := repo.FindByID(ctx, si.ID)
	require.NoError(t, err)
	assert.Equal(t, "re-split", reloaded.Description)
	assert.Equal(t, []uuid.UUID{v3, v1}, reloaded.VehicleIDs())
	_, stillThere := reloaded.AllocationFor(v2)
	assert.False(t, stillThere)

	sum, err := repo.SumAllocationsForVehicle(ctx, v2)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestGormSharedInvoiceRepository_SumAllocationsForVehicle(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormSharedInvoiceRepository(db)
	ctx := context.Background()

	v1, v2 := uuid.New(), uuid.New()
	require.NoError(t, repo.Create(ctx, newTestSharedInvoice(t, "CONTAINER-2026-001", "100", v1, v2)))
	require.NoError(t, repo.Create(ctx, newTestSharedInvoice(t, "CONTAINER-2026-002", "100", v1, v2, uuid.New())))

	sum, err := repo.SumAllocationsForVehicle(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, "83.33", sum.StringFixed(2))

	none, err := repo.SumAllocationsForVehicle(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestGormContainerInvoiceRepository(t *testing.T) {
	db := setupLedgerTestDB(t)
	sharedRepo := NewGormSharedInvoiceRepository(db)
	repo := NewGormContainerInvoiceRepository(db)
	ctx := context.Background()

	v1, v2 := uuid.New(), uuid.New()
	si := newTestSharedInvoice(t, "CONTAINER-2026-001", "200", v1, v2)
	require.NoError(t, sharedRepo.Create(ctx, si))

	ci, err := finance.NewContainerInvoice("CONTAINER-2026-001", uuid.New(), si, []uuid.UUID{v2}, false, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, ci))

	found, err := repo.FindByID(ctx, ci.ID)
	require.NoError(t, err)
	assert.Equal(t, si.ID, found.SharedInvoiceID)
	assert.Equal(t, []uuid.UUID{v2}, found.VehicleIDs())
	assert.Equal(t, "100.00", found.TotalAmount.StringFixed(2))

	dup, err := finance.NewContainerInvoice("CONTAINER-2026-001", uuid.New(), si, nil, false, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrDuplicateNumber)
}
