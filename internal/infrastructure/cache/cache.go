// Package cache holds the route-layer response cache and the event handler
// that invalidates it when ledger state changes.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResponseCache stores serialized read models keyed by route.
// A miss is reported as (nil, false, nil).
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePattern removes every key matching a glob pattern and returns
	// the number of keys removed.
	DeletePattern(ctx context.Context, pattern string) (int64, error)
	Close() error
}

// Key namespaces
const (
	invoiceNamespace       = "invoice"
	vehicleNamespace       = "vehicle"
	sharedInvoiceNamespace = "shared-invoice"
)

// InvoiceDetailKey caches GET /invoices/:id
func InvoiceDetailKey(invoiceID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:detail", invoiceNamespace, invoiceID)
}

// InvoiceCostKey caches GET /invoices/:id/cost-invoice
func InvoiceCostKey(invoiceID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:cost", invoiceNamespace, invoiceID)
}

// InvoicePattern matches every cached view of one invoice
func InvoicePattern(invoiceID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:*", invoiceNamespace, invoiceID)
}

// VehiclePattern matches every cached view of one vehicle
func VehiclePattern(vehicleID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:*", vehicleNamespace, vehicleID)
}

// SharedInvoicePattern matches all cached shared and container invoice views
func SharedInvoicePattern() string {
	return sharedInvoiceNamespace + ":*"
}
