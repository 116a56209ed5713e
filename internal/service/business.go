package service

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/admission"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/samber/lo"
)

type BusinessService interface {
	CreateBusiness(ctx context.Context, req dto.CreateBusinessRequest) (*dto.BusinessResponse, error)
	GetBusiness(ctx context.Context, id string) (*dto.BusinessResponse, error)
	ListBusinesses(ctx context.Context) ([]*dto.BusinessResponse, error)
	DeleteBusiness(ctx context.Context, id string) error

	// UpdatePlan changes the subscription tier. Plan changes come from the
	// admin API and from payment provider subscription events.
	UpdatePlan(ctx context.Context, id string, plan types.PlanTier) (*dto.BusinessResponse, error)
}

type businessService struct {
	ServiceParams
	limits admission.Limits
}

func NewBusinessService(params ServiceParams) BusinessService {
	return &businessService{
		ServiceParams: params,
		limits:        params.Config.Admission.Limits(),
	}
}

func (s *businessService) CreateBusiness(ctx context.Context, req dto.CreateBusinessRequest) (*dto.BusinessResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b := req.ToBusiness(ctx)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.BusinessRepo.Create(ctx, b)
	}); err != nil {
		return nil, err
	}

	s.Logger.Infow("created business",
		"business_id", b.ID,
		"owner_id", b.OwnerID,
		"plan", b.Plan,
	)
	return dto.NewBusinessResponse(b), nil
}

func (s *businessService) GetBusiness(ctx context.Context, id string) (*dto.BusinessResponse, error) {
	b, err := s.getAuthorizedBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewBusinessResponse(b), nil
}

func (s *businessService) ListBusinesses(ctx context.Context) ([]*dto.BusinessResponse, error) {
	businesses, err := s.BusinessRepo.ListByOwner(ctx, types.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	return lo.Map(businesses, func(b *business.Business, _ int) *dto.BusinessResponse {
		return dto.NewBusinessResponse(b)
	}), nil
}

func (s *businessService) DeleteBusiness(ctx context.Context, id string) error {
	b, err := s.getAuthorizedBusiness(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.BusinessRepo.Delete(ctx, id)
	}); err != nil {
		return err
	}

	s.invalidateUsage(ctx, id, s.limits.ScopeKind(b.Plan))
	s.Logger.Infow("deleted business", "business_id", id, "owner_id", b.OwnerID)
	return nil
}

func (s *businessService) UpdatePlan(ctx context.Context, id string, plan types.PlanTier) (*dto.BusinessResponse, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	b, err := s.getAuthorizedBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Plan == plan {
		return dto.NewBusinessResponse(b), nil
	}

	previous := b.Plan
	if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.BusinessRepo.UpdatePlan(ctx, id, plan)
	}); err != nil {
		return nil, err
	}
	b.Plan = plan

	// the scope may differ between the old and the new plan
	s.invalidateUsage(ctx, id, s.limits.ScopeKind(previous))
	s.invalidateUsage(ctx, id, s.limits.ScopeKind(plan))
	s.publish(ctx, types.EventPlanChanged, id, map[string]any{
		"previous_plan": previous,
		"plan":          plan,
	})

	s.Logger.Infow("updated business plan",
		"business_id", id,
		"previous_plan", previous,
		"plan", plan,
	)
	return dto.NewBusinessResponse(b), nil
}
