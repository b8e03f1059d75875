package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]interface{}{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func newCharge(t *testing.T, label, amount string) InvoiceCharge {
	t.Helper()
	ct, err := NewChargeType(label)
	require.NoError(t, err)
	c, err := NewInvoiceCharge(uuid.New(), ct, label, dec(amount), 0)
	require.NoError(t, err)
	return *c
}

func newTestInvoice(t *testing.T, charges ...InvoiceCharge) *Invoice {
	t.Helper()
	vehicleID := uuid.New()
	inv, err := NewInvoice("INV-80001", uuid.New(), &vehicleID)
	require.NoError(t, err)
	require.NoError(t, inv.ReplaceCharges(charges))
	inv.ClearDomainEvents()
	return inv
}
