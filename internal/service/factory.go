package service

import (
	"context"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/cache"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/events"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/radu9120/ZeroDue-sub000/internal/publisher"
	"github.com/radu9120/ZeroDue-sub000/internal/sentry"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	// Repositories
	BusinessRepo business.Repository
	InvoiceRepo  invoice.Repository
	CreditRepo   credit.Repository

	// Publishers
	EventPublisher publisher.EventPublisher

	// Now is the clock used for invoice timestamps and the monthly window
	Now func() time.Time

	usageGuard *usageCacheGuard
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	businessRepo business.Repository,
	invoiceRepo invoice.Repository,
	creditRepo credit.Repository,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		DB:             db,
		Cache:          cache,
		Sentry:         sentry,
		BusinessRepo:   businessRepo,
		InvoiceRepo:    invoiceRepo,
		CreditRepo:     creditRepo,
		EventPublisher: eventPublisher,
		Now:            func() time.Time { return time.Now().UTC() },
		usageGuard:     newUsageCacheGuard(),
	}
}

func (p ServiceParams) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

// authorize checks that the caller may act on the business. Requests
// authenticated with the admin key may act on any business.
func authorize(ctx context.Context, b *business.Business) error {
	if types.IsAdmin(ctx) || b.IsOwnedBy(types.GetUserID(ctx)) {
		return nil
	}
	return ierr.NewError("business not owned by caller").
		WithHint("You do not have access to this business").
		WithReportableDetails(map[string]any{"business_id": b.ID}).
		Mark(ierr.ErrPermissionDenied)
}

// getAuthorizedBusiness loads a business and checks the caller may act on it
func (p ServiceParams) getAuthorizedBusiness(ctx context.Context, businessID string) (*business.Business, error) {
	b, err := p.BusinessRepo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// invalidateUsage drops cached usage snapshots affected by a write to the business
func (p ServiceParams) invalidateUsage(ctx context.Context, businessID string, scope types.UsageScopeKind) {
	if p.Cache == nil {
		return
	}
	all := scope == types.UsageScopeOwner
	p.usageGuard.invalidate(businessID, all, func() {
		if all {
			p.Cache.DeleteByPrefix(ctx, cache.PrefixUsageSnapshot)
			return
		}
		p.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixUsageSnapshot, businessID))
	})
}

// publish sends a domain event after commit. A failed publish never undoes
// the committed change, it is logged instead.
func (p ServiceParams) publish(ctx context.Context, name types.DomainEventName, businessID string, payload map[string]any) {
	if p.EventPublisher == nil {
		return
	}
	event := events.NewEvent(ctx, name, businessID, payload)
	if err := p.EventPublisher.Publish(ctx, event); err != nil {
		p.Logger.Errorw("failed to publish domain event",
			"event_name", name,
			"business_id", businessID,
			"error", err,
		)
	}
}
