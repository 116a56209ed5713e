package credit

import "context"

// Repository owns the extra_invoice_credits balance of a business and the
// purchases that fed it. Every balance change is a single conditional
// statement, never a read followed by a write.
type Repository interface {
	GetBalance(ctx context.Context, businessID string) (int, error)

	// TryConsumeOne decrements the balance by one if it is positive.
	// It returns false without mutating anything when the balance is zero.
	TryConsumeOne(ctx context.Context, businessID string) (bool, error)

	// AddCredits increments the balance and returns the new value
	AddCredits(ctx context.Context, businessID string, quantity int) (int, error)

	// CreatePurchase stores a purchase. A reused payment reference is
	// reported as ErrAlreadyExists.
	CreatePurchase(ctx context.Context, p *Purchase) error
	GetPurchaseByReference(ctx context.Context, reference string) (*Purchase, error)
}
