package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoexport/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// sequenceColumns maps each numbering scope to the table and column holding
// the issued numbers
var sequenceColumns = map[finance.SequenceScope]struct {
	table  string
	column string
}{
	finance.SequenceInvoice:          {table: "invoices", column: "invoice_number"},
	finance.SequenceSharedInvoice:    {table: "shared_invoices", column: "invoice_number"},
	finance.SequenceContainerInvoice: {table: "container_invoices", column: "invoice_number"},
}

// GormSequenceGenerator issues document numbers by reading the last issued
// number with the sequence prefix. It holds no lock: two concurrent callers
// can compute the same number, and the unique index on the number column
// rejects the second insert with DUPLICATE_NUMBER.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// NextNumber returns the number that follows the last one issued
func (g *GormSequenceGenerator) NextNumber(ctx context.Context, scope finance.SequenceScope, spec finance.SequenceSpec) (string, error) {
	numbers, err := g.ReserveNumbers(ctx, scope, spec, 1)
	if err != nil {
		return "", err
	}
	return numbers[0], nil
}

// ReserveNumbers returns count consecutive numbers following the last one issued
func (g *GormSequenceGenerator) ReserveNumbers(ctx context.Context, scope finance.SequenceScope, spec finance.SequenceSpec, count int) ([]string, error) {
	if count < 1 {
		return nil, fmt.Errorf("sequence %s: count must be positive, got %d", scope, count)
	}
	last, err := g.lastNumber(ctx, scope, spec.Prefix)
	if err != nil {
		return nil, err
	}
	return spec.Reserve(last, count), nil
}

// lastNumber returns the lexicographically greatest number with prefix, or ""
func (g *GormSequenceGenerator) lastNumber(ctx context.Context, scope finance.SequenceScope, prefix string) (string, error) {
	target, ok := sequenceColumns[scope]
	if !ok {
		return "", fmt.Errorf("unknown sequence scope %q", scope)
	}

	var numbers []string
	if err := g.db.WithContext(ctx).
		Table(target.table).
		Where(target.column+` LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order(target.column+" DESC").
		Limit(1).
		Pluck(target.column, &numbers).Error; err != nil {
		return "", fmt.Errorf("failed to read last %s number: %w", scope, err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ finance.SequenceGenerator = (*GormSequenceGenerator)(nil)
