package finance

import (
	"testing"
	"time"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	now := time.Now()

	tx, err := NewTransaction(DirectionIncoming, "PAYMENT", dec("100.005"), now)
	require.NoError(t, err)
	assert.True(t, tx.IsIncoming())
	assertDecimal(t, "100.01", tx.Amount)

	_, err = NewTransaction(DirectionIncoming, "PAYMENT", dec("0"), now)
	assert.Equal(t, CodeInvalidAmount, shared.CodeOf(err))

	_, err = NewTransaction("SIDEWAYS", "PAYMENT", dec("1"), now)
	assert.Equal(t, CodeValidation, shared.CodeOf(err))

	_, err = NewTransaction(DirectionOutgoing, "PAYMENT", dec("1"), time.Time{})
	assert.Equal(t, CodeValidation, shared.CodeOf(err))
}

func TestTransaction_ApplyPatch(t *testing.T) {
	tx, err := NewTransaction(DirectionOutgoing, "VENDOR", dec("50"), time.Now())
	require.NoError(t, err)
	assert.False(t, tx.PaysCostRecord())

	costItemID := uuid.New()
	require.NoError(t, tx.ApplyPatch(TransactionPatch{
		CostItemID: shared.Some(&costItemID),
		Amount:     shared.Some(dec("75")),
	}))
	assert.True(t, tx.PaysCostRecord())
	assertDecimal(t, "75", tx.Amount)

	require.NoError(t, tx.ApplyPatch(TransactionPatch{CostItemID: shared.Some[*uuid.UUID](nil)}))
	assert.Nil(t, tx.CostItemID)

	err = tx.ApplyPatch(TransactionPatch{Amount: shared.Some(dec("-1"))})
	assert.Equal(t, CodeInvalidAmount, shared.CodeOf(err))
}
