package persistence

import (
	"context"
	"errors"
	"testing"

	appfinance "github.com/autoexport/backend/internal/application/finance"
	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	db := setupLedgerTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()
	spec := finance.InvoiceSequence("", 0)

	t.Run("commits every repository write", func(t *testing.T) {
		var created *finance.Invoice
		err := scope.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
			number, err := repos.Sequences().NextNumber(ctx, finance.SequenceInvoice, spec)
			if err != nil {
				return err
			}
			created, err = finance.NewInvoice(number, uuid.New(), nil)
			if err != nil {
				return err
			}
			if err := repos.Invoices().Create(ctx, created); err != nil {
				return err
			}
			return repos.CostInvoices().Create(ctx, finance.NewCostInvoice(created.ID, created.Totals().Total))
		})
		require.NoError(t, err)

		_, err = NewGormInvoiceRepository(db).FindByID(ctx, created.ID)
		assert.NoError(t, err)
		_, err = NewGormCostInvoiceRepository(db).FindByInvoiceID(ctx, created.ID)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		var created *finance.Invoice
		err := scope.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
			var err error
			created, err = finance.NewInvoice("INV-50000", uuid.New(), nil)
			if err != nil {
				return err
			}
			if err := repos.Invoices().Create(ctx, created); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormInvoiceRepository(db).FindByID(ctx, created.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
