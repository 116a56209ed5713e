package business

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// Repository defines the interface for business persistence operations
type Repository interface {
	Create(ctx context.Context, b *Business) error
	Get(ctx context.Context, id string) (*Business, error)

	// GetForUpdate reads the business and holds its row lock until the
	// enclosing transaction ends. It must be called inside a transaction.
	GetForUpdate(ctx context.Context, id string) (*Business, error)

	// LockByOwner locks every business row of the owner in id order, so two
	// writers for the same owner always acquire locks in the same sequence.
	LockByOwner(ctx context.Context, ownerID string) ([]*Business, error)

	ListByOwner(ctx context.Context, ownerID string) ([]*Business, error)
	UpdatePlan(ctx context.Context, id string, plan types.PlanTier) error

	// Delete removes the business together with its invoices, counter and purchases
	Delete(ctx context.Context, id string) error
}
