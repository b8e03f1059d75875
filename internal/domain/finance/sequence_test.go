package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceSequence_NextAfter(t *testing.T) {
	seq := InvoiceSequence(DefaultInvoicePrefix, DefaultInvoiceFloor)

	tests := []struct {
		last string
		want string
	}{
		{"", "INV-80001"},
		{"INV-79999", "INV-80001"},
		{"INV-80000", "INV-80001"},
		{"INV-80001", "INV-80002"},
		{"INV-123456", "INV-123457"},
		{"INV-abc", "INV-80001"},
		{"XYZ-90000", "INV-80001"},
	}
	for _, tt := range tests {
		t.Run(tt.last, func(t *testing.T) {
			assert.Equal(t, tt.want, seq.Format(seq.NextAfter(tt.last)))
		})
	}
}

func TestInvoiceSequence_Defaults(t *testing.T) {
	seq := InvoiceSequence("", 0)
	assert.Equal(t, DefaultInvoicePrefix, seq.Prefix)
	assert.Equal(t, 1, seq.Floor)
}

func TestYearScopedSequence(t *testing.T) {
	seq := YearScopedSequence(" container ", 2026, DefaultYearWidth)

	assert.Equal(t, "CONTAINER-2026-", seq.Prefix)
	assert.Equal(t, "CONTAINER-2026-001", seq.Format(seq.NextAfter("")))
	assert.Equal(t, "CONTAINER-2026-008", seq.Format(seq.NextAfter("CONTAINER-2026-007")))
	assert.Equal(t, "CONTAINER-2026-1000", seq.Format(seq.NextAfter("CONTAINER-2026-999")))
	assert.Equal(t, "CONTAINER-2026-001", seq.Format(seq.NextAfter("CONTAINER-2025-044")))
}

func TestSequenceSpec_Reserve(t *testing.T) {
	seq := InvoiceSequence(DefaultInvoicePrefix, DefaultInvoiceFloor)

	assert.Equal(t, []string{"INV-80001", "INV-80002", "INV-80003"}, seq.Reserve("", 3))
	assert.Equal(t, []string{"INV-80011"}, seq.Reserve("INV-80010", 1))
	assert.Empty(t, seq.Reserve("INV-80010", 0))
}
