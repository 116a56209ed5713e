package postgres

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

const businessColumns = `id, owner_id, name, email, currency, plan, extra_invoice_credits,
	status, created_at, updated_at, created_by, updated_by`

type businessRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBusinessRepository(db *postgres.DB, logger *logger.Logger) business.Repository {
	return &businessRepository{db: db, logger: logger}
}

func (r *businessRepository) Create(ctx context.Context, b *business.Business) error {
	query := `
	INSERT INTO businesses (` + businessColumns + `)
	VALUES (
		:id, :owner_id, :name, :email, :currency, :plan, :extra_invoice_credits,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, b); err != nil {
		return postgres.ClassifyError(err, "insert business")
	}

	r.logger.Debugw("created business", "business_id", b.ID, "owner_id", b.OwnerID)
	return nil
}

func (r *businessRepository) Get(ctx context.Context, id string) (*business.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1 AND status = $2`

	var b business.Business
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, id, types.StatusPublished); err != nil {
		return nil, notFoundHint(postgres.ClassifyError(err, "get business"), "Business", id)
	}
	return &b, nil
}

func (r *businessRepository) GetForUpdate(ctx context.Context, id string) (*business.Business, error) {
	if err := requireTx(ctx, "lock business"); err != nil {
		return nil, err
	}

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1 AND status = $2 FOR UPDATE`

	var b business.Business
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, id, types.StatusPublished); err != nil {
		return nil, notFoundHint(postgres.ClassifyError(err, "lock business"), "Business", id)
	}
	return &b, nil
}

func (r *businessRepository) LockByOwner(ctx context.Context, ownerID string) ([]*business.Business, error) {
	if err := requireTx(ctx, "lock owner businesses"); err != nil {
		return nil, err
	}

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE owner_id = $1 AND status = $2 ORDER BY id FOR UPDATE`

	var businesses []*business.Business
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &businesses, query, ownerID, types.StatusPublished); err != nil {
		return nil, postgres.ClassifyError(err, "lock owner businesses")
	}
	return businesses, nil
}

func (r *businessRepository) ListByOwner(ctx context.Context, ownerID string) ([]*business.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE owner_id = $1 AND status = $2 ORDER BY created_at`

	var businesses []*business.Business
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &businesses, query, ownerID, types.StatusPublished); err != nil {
		return nil, postgres.ClassifyError(err, "list businesses")
	}
	return businesses, nil
}

func (r *businessRepository) UpdatePlan(ctx context.Context, id string, plan types.PlanTier) error {
	query := `
	UPDATE businesses
	SET plan = $2, updated_at = NOW(), updated_by = $3
	WHERE id = $1 AND status = $4`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, plan, types.GetUserID(ctx), types.StatusPublished)
	if err != nil {
		return postgres.ClassifyError(err, "update business plan")
	}
	return requireAffected(result, "Business", id)
}

func (r *businessRepository) Delete(ctx context.Context, id string) error {
	// invoices, the sequence counter and purchases cascade
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return postgres.ClassifyError(err, "delete business")
	}
	return requireAffected(result, "Business", id)
}
