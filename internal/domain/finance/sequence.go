package finance

import (
	"fmt"
	"strconv"
	"strings"
)

// SequenceScope names the document family a number belongs to
type SequenceScope string

const (
	SequenceInvoice          SequenceScope = "invoice"
	SequenceSharedInvoice    SequenceScope = "shared_invoice"
	SequenceContainerInvoice SequenceScope = "container_invoice"
)

// Default numbering parameters
const (
	DefaultInvoicePrefix = "INV-"
	DefaultInvoiceFloor  = 80001
	DefaultYearWidth     = 3
)

// SequenceSpec describes one numbering sequence: a fixed prefix followed by
// an integer that never drops below Floor, zero-padded to Width digits.
type SequenceSpec struct {
	Prefix string
	Floor  int
	Width  int
}

// InvoiceSequence is the global plain-invoice sequence
func InvoiceSequence(prefix string, floor int) SequenceSpec {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	if floor < 1 {
		floor = 1
	}
	return SequenceSpec{Prefix: prefix, Floor: floor}
}

// YearScopedSequence is the "{TYPE}-{year}-NNN" sequence used for shared and
// container invoices
func YearScopedSequence(docType string, year, width int) SequenceSpec {
	if width < 1 {
		width = DefaultYearWidth
	}
	return SequenceSpec{
		Prefix: fmt.Sprintf("%s-%d-", NormalizeSharedInvoiceType(docType), year),
		Floor:  1,
		Width:  width,
	}
}

// Format renders the n-th number of the sequence
func (s SequenceSpec) Format(n int) string {
	if s.Width > 0 {
		return fmt.Sprintf("%s%0*d", s.Prefix, s.Width, n)
	}
	return s.Prefix + strconv.Itoa(n)
}

// ParseTrailing extracts the integer after the prefix
func (s SequenceSpec) ParseTrailing(number string) (int, bool) {
	if !strings.HasPrefix(number, s.Prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, s.Prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextAfter returns the integer that follows the last issued number, or the
// floor when nothing parseable was issued or the successor sits below it.
func (s SequenceSpec) NextAfter(last string) int {
	n, ok := s.ParseTrailing(last)
	if !ok {
		return s.Floor
	}
	if n+1 < s.Floor {
		return s.Floor
	}
	return n + 1
}

// Reserve renders count consecutive numbers following last
func (s SequenceSpec) Reserve(last string, count int) []string {
	start := s.NextAfter(last)
	numbers := make([]string, 0, count)
	for i := 0; i < count; i++ {
		numbers = append(numbers, s.Format(start+i))
	}
	return numbers
}
