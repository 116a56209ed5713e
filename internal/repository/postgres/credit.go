package postgres

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

type creditRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCreditRepository(db *postgres.DB, logger *logger.Logger) credit.Repository {
	return &creditRepository{db: db, logger: logger}
}

func (r *creditRepository) GetBalance(ctx context.Context, businessID string) (int, error) {
	query := `SELECT extra_invoice_credits FROM businesses WHERE id = $1 AND status = $2`

	var balance int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &balance, query, businessID, types.StatusPublished); err != nil {
		return 0, notFoundHint(postgres.ClassifyError(err, "get credit balance"), "Business", businessID)
	}
	return balance, nil
}

func (r *creditRepository) TryConsumeOne(ctx context.Context, businessID string) (bool, error) {
	query := `
	UPDATE businesses
	SET extra_invoice_credits = extra_invoice_credits - 1, updated_at = NOW()
	WHERE id = $1 AND status = $2 AND extra_invoice_credits > 0`

	q := r.db.GetQuerier(ctx)
	result, err := q.ExecContext(ctx, query, businessID, types.StatusPublished)
	if err != nil {
		return false, postgres.ClassifyError(err, "consume credit")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, postgres.ClassifyError(err, "consume credit")
	}
	if rows == 1 {
		return true, nil
	}

	// nothing was decremented, tell an empty balance apart from a missing business
	var exists bool
	err = q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM businesses WHERE id = $1 AND status = $2)`,
		businessID, types.StatusPublished)
	if err != nil {
		return false, postgres.ClassifyError(err, "consume credit")
	}
	if !exists {
		return false, ierr.NewError("business not found").
			WithHintf("Business %s was not found", businessID).
			Mark(ierr.ErrNotFound)
	}
	return false, nil
}

func (r *creditRepository) AddCredits(ctx context.Context, businessID string, quantity int) (int, error) {
	if err := credit.ValidateQuantity(quantity); err != nil {
		return 0, err
	}

	query := `
	UPDATE businesses
	SET extra_invoice_credits = extra_invoice_credits + $2, updated_at = NOW()
	WHERE id = $1 AND status = $3
	RETURNING extra_invoice_credits`

	var balance int
	err := r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, businessID, quantity, types.StatusPublished).Scan(&balance)
	if err != nil {
		return 0, notFoundHint(postgres.ClassifyError(err, "add credits"), "Business", businessID)
	}

	r.logger.Infow("added invoice credits",
		"business_id", businessID,
		"quantity", quantity,
		"balance", balance,
	)
	return balance, nil
}

func (r *creditRepository) CreatePurchase(ctx context.Context, p *credit.Purchase) error {
	query := `
	INSERT INTO credit_purchases (
		id, business_id, quantity, amount, currency, payment_reference, created_at, created_by
	) VALUES (
		:id, :business_id, :quantity, :amount, :currency, :payment_reference, :created_at, :created_by
	)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return postgres.ClassifyError(err, "insert credit purchase")
	}
	return nil
}

func (r *creditRepository) GetPurchaseByReference(ctx context.Context, reference string) (*credit.Purchase, error) {
	query := `
	SELECT id, business_id, quantity, amount, currency, payment_reference, created_at, created_by
	FROM credit_purchases
	WHERE payment_reference = $1`

	var p credit.Purchase
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, reference); err != nil {
		return nil, notFoundHint(postgres.ClassifyError(err, "get credit purchase"), "Credit purchase", reference)
	}
	return &p, nil
}
