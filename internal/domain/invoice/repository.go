package invoice

import (
	"context"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create inserts an invoice. A clash on the business scoped number
	// constraints is reported as ErrSequenceConflict.
	Create(ctx context.Context, inv *Invoice) error

	// Get retrieves an invoice of a business by ID
	Get(ctx context.Context, businessID, id string) (*Invoice, error)

	// List retrieves invoices of a business, newest first
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the number of invoices matching the filter
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)

	// CountByScope counts every invoice ever created in scope
	CountByScope(ctx context.Context, scope types.UsageScope) (int, error)

	// CountByScopeBetween counts invoices in scope created in [start, end)
	CountByScopeBetween(ctx context.Context, scope types.UsageScope, start, end time.Time) (int, error)

	// NextSequenceValue advances the business counter and returns the new
	// value. The counter row stays locked until the transaction ends.
	NextSequenceValue(ctx context.Context, businessID string) (int64, error)
}
