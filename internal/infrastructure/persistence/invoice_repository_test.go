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

func TestGormInvoiceRepository_CreateAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	vehicleID := uuid.New()

	inv := createTestInvoice(t, db, "INV-80001", &vehicleID, map[string]string{
		"Vehicle":     "1000000",
		"Export Fees": "150000",
		"Deposit":     "50000",
	})

	t.Run("loads charges in position order with type names", func(t *testing.T) {
		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)

		assert.Equal(t, "INV-80001", found.InvoiceNumber)
		assert.Equal(t, finance.InvoiceStatusDraft, found.Status)
		assert.Equal(t, finance.PaymentStatusPending, found.PaymentStatus)
		require.Len(t, found.Charges, 3)
		assert.Equal(t, "Deposit", found.Charges[0].ChargeTypeName)
		assert.Equal(t, "Export Fees", found.Charges[1].ChargeTypeName)
		assert.Equal(t, "Vehicle", found.Charges[2].ChargeTypeName)
		assert.Equal(t, 1, found.Version)
	})

	t.Run("totals are derived from stored charges", func(t *testing.T) {
		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)

		totals := found.Totals()
		assert.Equal(t, "1100000.00", totals.Total.StringFixed(2))
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate number is rejected", func(t *testing.T) {
		dup, err := finance.NewInvoice("INV-80001", uuid.New(), nil)
		require.NoError(t, err)

		err = repo.Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrDuplicateNumber)
	})
}

func TestGormInvoiceRepository_FindByVehicle(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	vehicleID := uuid.New()
	otherVehicle := uuid.New()

	createTestInvoice(t, db, "INV-80001", &vehicleID, map[string]string{"Vehicle": "100"})
	createTestInvoice(t, db, "INV-80002", &vehicleID, map[string]string{"Vehicle": "200"})
	createTestInvoice(t, db, "INV-80003", &otherVehicle, map[string]string{"Vehicle": "300"})

	invoices, err := repo.FindByVehicle(ctx, vehicleID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-80001", invoices[0].InvoiceNumber)
	assert.Equal(t, "INV-80002", invoices[1].InvoiceNumber)
	assert.Len(t, invoices[1].Charges, 1)

	none, err := repo.FindByVehicle(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormInvoiceRepository_Save(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormInvoiceRepository(db)
	chargeTypes := NewGormChargeTypeRepository(db)
	ctx := context.Background()

	inv := createTestInvoice(t, db, "INV-80001", nil, map[string]string{
		"Vehicle":  "1000",
		"Shipping": "200",
	})

	t.Run("replaces charges wholesale", func(t *testing.T) {
		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)

		discount, err := finance.NewChargeType("Discount")
		require.NoError(t, err)
		require.NoError(t, chargeTypes.Create(ctx, discount))

		vehicleType, err := chargeTypes.FindByNormalizedName(ctx, "vehicle")
		require.NoError(t, err)

		line1, err := finance.NewInvoiceCharge(found.ID, vehicleType, "sedan", dec("900"), 0)
		require.NoError(t, err)
		line2, err := finance.NewInvoiceCharge(found.ID, discount, "", dec("100"), 1)
		require.NoError(t, err)
		require.NoError(t, found.ReplaceCharges([]finance.InvoiceCharge{*line1, *line2}))

		rate := dec("10")
		require.NoError(t, found.SetTax(true, &rate))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Charges, 2)
		assert.Equal(t, "sedan", reloaded.Charges[0].Description)
		assert.Equal(t, finance.ChargeKindSubtract, reloaded.Charges[1].Kind())
		assert.True(t, reloaded.TaxEnabled)
		require.NotNil(t, reloaded.TaxRate)
		assert.Equal(t, "10.00", reloaded.TaxRate.StringFixed(2))
		assert.Equal(t, "880.00", reloaded.Totals().Total.StringFixed(2))
	})

	t.Run("persists payment state", func(t *testing.T) {
		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)

		now := time.Now()
		found.ReconcilePayments(found.Totals().Total, now)
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.PaymentStatusPaid, reloaded.PaymentStatus)
		require.NotNil(t, reloaded.PaidAt)
		assert.WithinDuration(t, now, *reloaded.PaidAt, time.Second)
	})

	t.Run("missing invoice returns not found", func(t *testing.T) {
		ghost, err := finance.NewInvoice("INV-99999", uuid.New(), nil)
		require.NoError(t, err)

		err = repo.Save(ctx, ghost)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormChargeTypeRepository(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormChargeTypeRepository(db)
	ctx := context.Background()

	ct, err := finance.NewChargeType("  Export Fees ")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, ct))

	found, err := repo.FindByNormalizedName(ctx, finance.NormalizeChargeLabel("EXPORT FEES"))
	require.NoError(t, err)
	assert.Equal(t, ct.ID, found.ID)
	assert.Equal(t, "Export Fees", found.Name)

	_, err = repo.FindByNormalizedName(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	dup, err := finance.NewChargeType("export fees")
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}
