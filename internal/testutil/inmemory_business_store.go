package testutil

import (
	"context"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

var _ business.Repository = (*InMemoryBusinessStore)(nil)

// businessScoped is implemented by stores holding rows that cascade with their business
type businessScoped interface {
	deleteByBusiness(ctx context.Context, businessID string)
}

// InMemoryBusinessStore implements business.Repository
type InMemoryBusinessStore struct {
	*InMemoryStore[*business.Business]
	dependents []businessScoped
}

// NewInMemoryBusinessStore creates a new in-memory business store
func NewInMemoryBusinessStore() *InMemoryBusinessStore {
	return &InMemoryBusinessStore{
		InMemoryStore: NewInMemoryStore(copyBusiness),
	}
}

func copyBusiness(b *business.Business) *business.Business {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Cascade registers stores whose rows are removed together with a business
func (s *InMemoryBusinessStore) Cascade(stores ...businessScoped) {
	s.dependents = append(s.dependents, stores...)
}

func (s *InMemoryBusinessStore) Create(ctx context.Context, b *business.Business) error {
	if b == nil {
		return ierr.NewError("business cannot be nil").
			WithHint("Business cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, b.ID, b, nil)
}

func (s *InMemoryBusinessStore) Get(ctx context.Context, id string) (*business.Business, error) {
	b, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Business %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return b, nil
}

func (s *InMemoryBusinessStore) GetForUpdate(ctx context.Context, id string) (*business.Business, error) {
	if err := requireMockTx(ctx, "lock business"); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *InMemoryBusinessStore) LockByOwner(ctx context.Context, ownerID string) ([]*business.Business, error) {
	if err := requireMockTx(ctx, "lock owner businesses"); err != nil {
		return nil, err
	}
	return s.List(ctx, ownerFilter(ownerID), func(i, j *business.Business) bool {
		return i.ID < j.ID
	}), nil
}

func (s *InMemoryBusinessStore) ListByOwner(ctx context.Context, ownerID string) ([]*business.Business, error) {
	return s.List(ctx, ownerFilter(ownerID), func(i, j *business.Business) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	}), nil
}

func (s *InMemoryBusinessStore) UpdatePlan(ctx context.Context, id string, plan types.PlanTier) error {
	_, err := s.Mutate(ctx, id, func(b *business.Business) (*business.Business, error) {
		b.Plan = plan
		b.UpdatedAt = time.Now().UTC()
		b.UpdatedBy = types.GetUserID(ctx)
		return b, nil
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Business %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryBusinessStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.WithError(err).
			WithHintf("Business %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	for _, d := range s.dependents {
		d.deleteByBusiness(ctx, id)
	}
	return nil
}

// SetCredits overwrites the balance of a business, for seeding tests
func (s *InMemoryBusinessStore) SetCredits(ctx context.Context, id string, balance int) error {
	_, err := s.Mutate(ctx, id, func(b *business.Business) (*business.Business, error) {
		b.ExtraInvoiceCredits = balance
		return b, nil
	})
	return err
}

func ownerFilter(ownerID string) FilterFunc[*business.Business] {
	return func(_ context.Context, b *business.Business) bool {
		return b.OwnerID == ownerID
	}
}
