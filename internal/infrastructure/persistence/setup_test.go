package persistence

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupLedgerTestDB opens an in-memory SQLite database with every ledger table.
// A single connection keeps the in-memory database shared across queries.
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// createTestInvoice stores an invoice for vehicleID with the given charges
func createTestInvoice(t *testing.T, db *gorm.DB, number string, vehicleID *uuid.UUID, charges map[string]string) *finance.Invoice {
	t.Helper()
	ctx := context.Background()

	inv, err := finance.NewInvoice(number, uuid.New(), vehicleID)
	require.NoError(t, err)

	chargeRepo := NewGormChargeTypeRepository(db)
	lines := make([]finance.InvoiceCharge, 0, len(charges))
	for _, label := range sortedKeys(charges) {
		ct, err := chargeRepo.FindByNormalizedName(ctx, finance.NormalizeChargeLabel(label))
		if err != nil {
			ct, err = finance.NewChargeType(label)
			require.NoError(t, err)
			require.NoError(t, chargeRepo.Create(ctx, ct))
		}
		line, err := finance.NewInvoiceCharge(inv.ID, ct, "", dec(charges[label]), len(lines))
		require.NoError(t, err)
		lines = append(lines, *line)
	}
	require.NoError(t, inv.ReplaceCharges(lines))
	inv.ClearDomainEvents()

	require.NoError(t, NewGormInvoiceRepository(db).Create(ctx, inv))
	return inv
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func timePtr(t time.Time) *time.Time {
	return &t
}
