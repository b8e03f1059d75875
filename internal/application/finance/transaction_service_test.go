package finance

import (
	"context"
	"testing"
	"time"

	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTransactionService(repos *testRepos) (*TransactionService, *recordingPublisher) {
	reconciler, _, _ := newTestReconciler(repos)
	publisher := &recordingPublisher{}
	svc := NewTransactionService(repos.scope(), reconciler, newTestLogger())
	svc.SetEventPublisher(publisher)
	return svc, publisher
}

func TestTransactionService_RecordIncomingReconcilesInvoiceAndVehicle(t *testing.T) {
	repos := newTestRepos()
	vehicleID := uuid.New()
	inv := newTestInvoice("INV-80030", &vehicleID, "1000")

	repos.transactions.On("Create", mock.Anything, mock.AnythingOfType("*finance.Transaction")).Return(nil)
	repos.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	repos.transactions.On("SumIncomingForInvoice", mock.Anything, inv.ID).Return(dec("1000"), nil)
	repos.invoices.On("Save", mock.Anything, inv).Return(nil)
	repos.transactions.On("SumIncomingForVehicle", mock.Anything, vehicleID).Return(dec("1000"), nil)
	repos.shippingStages.On("UpsertTotalReceived", mock.Anything, mock.AnythingOfType("*finance.VehicleShippingStage")).Return(nil)

	svc, publisher := newTestTransactionService(repos)
	result, err := svc.Record(context.Background(), RecordTransactionRequest{
		Direction: finance.DirectionIncoming,
		Type:      "wire",
		Amount:    dec("1000"),
		Date:      fixedNow,
		InvoiceID: &inv.ID,
		VehicleID: &vehicleID,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Transaction)
	require.Len(t, result.PaymentChanges, 1)
	assert.Equal(t, finance.PaymentStatusPaid, result.PaymentChanges[0].Current)
	assert.True(t, dec("1000").Equal(result.VehicleTotals[vehicleID]))
	assert.Equal(t, finance.PaymentStatusPaid, inv.PaymentStatus)
	assert.Equal(t, []string{
		finance.EventTypeInvoicePaymentStatusChanged,
		finance.EventTypeTransactionRecorded,
	}, publisher.types())
	repos.assertExpectations(t)
}

func TestTransactionService_RecordOutgoingStampsCostRecords(t *testing.T) {
	repos := newTestRepos()
	item, err := finance.NewCostItem(uuid.New(), "Port handling", dec("250"), "Port", nil)
	require.NoError(t, err)
	stageCost := &finance.VehicleStageCost{
		BaseEntity: shared.NewBaseEntity(),
		VehicleID:  uuid.New(),
		Stage:      "SHIPPING",
		Amount:     dec("90"),
	}
	paidOn := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	repos.transactions.On("Create", mock.Anything, mock.AnythingOfType("*finance.Transaction")).Return(nil)
	repos.costInvoices.On("FindItemByID", mock.Anything, item.ID).Return(item, nil)
	repos.costInvoices.On("SaveItem", mock.Anything, item).Return(nil)
	repos.stageCosts.On("FindByID", mock.Anything, stageCost.ID).Return(stageCost, nil)
	repos.stageCosts.On("Save", mock.Anything, stageCost).Return(nil)

	svc, _ := newTestTransactionService(repos)
	result, err := svc.Record(context.Background(), RecordTransactionRequest{
		Direction:          finance.DirectionOutgoing,
		Type:               "supplier payment",
		Amount:             dec("340"),
		Date:               paidOn,
		CostItemID:         &item.ID,
		VehicleStageCostID: &stageCost.ID,
	})

	require.NoError(t, err)
	assert.Empty(t, result.PaymentChanges)
	assert.Empty(t, result.VehicleTotals)
	require.NotNil(t, item.PaymentDate)
	assert.True(t, paidOn.Equal(*item.PaymentDate))
	require.NotNil(t, stageCost.PaymentDate)
	assert.True(t, paidOn.Equal(*stageCost.PaymentDate))
	repos.transactions.AssertNotCalled(t, "SumIncomingForInvoice", mock.Anything, mock.Anything)
	repos.assertExpectations(t)
}

func TestTransactionService_RecordRejectsInvalidAmount(t *testing.T) {
	repos := newTestRepos()
	svc, publisher := newTestTransactionService(repos)

	for _, amount := range []string{"0", "-5"} {
		_, err := svc.Record(context.Background(), RecordTransactionRequest{
			Direction: finance.DirectionIncoming,
			Type:      "cash",
			Amount:    dec(amount),
			Date:      fixedNow,
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, finance.CodeInvalidAmount, domainErr.Code)
	}
	assert.Empty(t, publisher.types())
	repos.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTransactionService_UpdateRelinksInvoice(t *testing.T) {
	repos := newTestRepos()
	invA := newTestInvoice("INV-80031", nil, "1000")
	invA.PaymentStatus = finance.PaymentStatusPaid
	paidAt := fixedNow.Add(-time.Hour)
	invA.PaidAt = &paidAt
	invB := newTestInvoice("INV-80032", nil, "1000")

	existing, err := finance.NewTransaction(finance.DirectionIncoming, "wire", dec("1000"), fixedNow)
	require.NoError(t, err)
	existing.InvoiceID = &invA.ID

	repos.transactions.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	repos.transactions.On("Save", mock.Anything, existing).Return(nil)
	repos.invoices.On("FindByID", mock.Anything, invA.ID).Return(invA, nil)
	repos.invoices.On("FindByID", mock.Anything, invB.ID).Return(invB, nil)
	repos.transactions.On("SumIncomingForInvoice", mock.Anything, invA.ID).Return(dec("0"), nil)
	repos.transactions.On("SumIncomingForInvoice", mock.Anything, invB.ID).Return(dec("1000"), nil)
	repos.invoices.On("Save", mock.Anything, invA).Return(nil)
	repos.invoices.On("Save", mock.Anything, invB).Return(nil)

	svc, _ := newTestTransactionService(repos)
	result, err := svc.Update(context.Background(), existing.ID, finance.TransactionPatch{
		InvoiceID: shared.Some(&invB.ID),
	})

	require.NoError(t, err)
	require.Len(t, result.PaymentChanges, 2)
	assert.Equal(t, invA.ID, result.PaymentChanges[0].InvoiceID)
	assert.Equal(t, finance.PaymentStatusPending, invA.PaymentStatus)
	assert.Nil(t, invA.PaidAt)
	assert.Equal(t, invB.ID, result.PaymentChanges[1].InvoiceID)
	assert.Equal(t, finance.PaymentStatusPaid, invB.PaymentStatus)
	repos.assertExpectations(t)
}

func TestTransactionService_UpdateRejectsInvalidPatch(t *testing.T) {
	repos := newTestRepos()
	existing, err := finance.NewTransaction(finance.DirectionIncoming, "wire", dec("10"), fixedNow)
	require.NoError(t, err)

	repos.transactions.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)

	svc, _ := newTestTransactionService(repos)
	_, err = svc.Update(context.Background(), existing.ID, finance.TransactionPatch{
		Amount: shared.Some(dec("0")),
	})

	require.Error(t, err)
	repos.transactions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTransactionService_DeleteReconcilesPreviousLinks(t *testing.T) {
	repos := newTestRepos()
	vehicleID := uuid.New()
	inv := newTestInvoice("INV-80033", &vehicleID, "1000")
	inv.PaymentStatus = finance.PaymentStatusPaid
	paidAt := fixedNow.Add(-time.Hour)
	inv.PaidAt = &paidAt

	existing, err := finance.NewTransaction(finance.DirectionIncoming, "wire", dec("1000"), fixedNow)
	require.NoError(t, err)
	existing.InvoiceID = &inv.ID
	existing.VehicleID = &vehicleID

	repos.transactions.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	repos.transactions.On("Delete", mock.Anything, existing.ID).Return(nil)
	repos.invoices.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	repos.transactions.On("SumIncomingForInvoice", mock.Anything, inv.ID).Return(dec("0"), nil)
	repos.invoices.On("Save", mock.Anything, inv).Return(nil)
	repos.transactions.On("SumIncomingForVehicle", mock.Anything, vehicleID).Return(dec("0"), nil)
	repos.shippingStages.On("UpsertTotalReceived", mock.Anything, mock.MatchedBy(func(s *finance.VehicleShippingStage) bool {
		return s.TotalReceived.IsZero()
	})).Return(nil)

	svc, publisher := newTestTransactionService(repos)
	result, err := svc.Delete(context.Background(), existing.ID)

	require.NoError(t, err)
	assert.Nil(t, result.Transaction)
	assert.Equal(t, finance.PaymentStatusPending, inv.PaymentStatus)
	assert.Nil(t, inv.PaidAt)
	assert.True(t, result.VehicleTotals[vehicleID].IsZero())
	assert.Contains(t, publisher.types(), finance.EventTypeTransactionRecorded)
	repos.assertExpectations(t)
}

func TestAffectedLinks(t *testing.T) {
	invA, invB, veh := uuid.New(), uuid.New(), uuid.New()

	incoming := func(inv, vehicle *uuid.UUID) *finance.Transaction {
		return &finance.Transaction{Direction: finance.DirectionIncoming, InvoiceID: inv, VehicleID: vehicle}
	}
	outgoing := &finance.Transaction{Direction: finance.DirectionOutgoing, InvoiceID: &invA, VehicleID: &veh}

	t.Run("create", func(t *testing.T) {
		invoices, vehicles := affectedLinks(nil, incoming(&invA, &veh))
		assert.Equal(t, []uuid.UUID{invA}, invoices)
		assert.Equal(t, []uuid.UUID{veh}, vehicles)
	})

	t.Run("relink dedupes vehicle", func(t *testing.T) {
		invoices, vehicles := affectedLinks(incoming(&invA, &veh), incoming(&invB, &veh))
		assert.Equal(t, []uuid.UUID{invA, invB}, invoices)
		assert.Equal(t, []uuid.UUID{veh}, vehicles)
	})

	t.Run("direction flip reconciles old links", func(t *testing.T) {
		invoices, vehicles := affectedLinks(incoming(&invA, &veh), outgoing)
		assert.Equal(t, []uuid.UUID{invA}, invoices)
		assert.Equal(t, []uuid.UUID{veh}, vehicles)
	})

	t.Run("outgoing only", func(t *testing.T) {
		invoices, vehicles := affectedLinks(nil, outgoing)
		assert.Empty(t, invoices)
		assert.Empty(t, vehicles)
	})
}
