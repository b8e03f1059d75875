package persistence

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/autoexport/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// isDuplicateKey reports a unique constraint violation. Connections are
// opened without TranslateError so the violated index stays visible;
// gorm.ErrDuplicatedKey is still accepted from translated connections.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

const pgUniqueViolation = "23505"

// numberIndexes are the unique indexes on human document numbers
var numberIndexes = []string{
	"idx_invoices_invoice_number",
	"idx_shared_invoices_invoice_number",
	"idx_container_invoices_invoice_number",
}

// violatesNumberIndex reports a unique violation on a document number column.
// Postgres names the constraint; SQLite names the table.column.
func violatesNumberIndex(err error) bool {
	if !isDuplicateKey(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return slices.Contains(numberIndexes, pgErr.ConstraintName)
	}
	msg := err.Error()
	for _, idx := range numberIndexes {
		if strings.Contains(msg, idx) {
			return true
		}
	}
	return strings.Contains(msg, "invoices.invoice_number")
}

// translateNumberInsert maps a duplicate document number onto DUPLICATE_NUMBER.
// Any other unique violation is ALREADY_EXISTS.
func translateNumberInsert(err error, number string) error {
	switch {
	case violatesNumberIndex(err):
		return fmt.Errorf("%w: %s", shared.ErrDuplicateNumber, number)
	case isDuplicateKey(err):
		return fmt.Errorf("%w: %v", shared.ErrAlreadyExists, err)
	}
	return err
}

// translateNotFound maps a missing row onto NOT_FOUND
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// forUpdate row-locks the selected rows on stores that support it
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
