package dto

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/radu9120/ZeroDue-sub000/internal/validator"
)

type CreateBusinessRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

func (r *CreateBusinessRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToBusiness builds a free plan business owned by the caller
func (r *CreateBusinessRequest) ToBusiness(ctx context.Context) *business.Business {
	return business.New(ctx, r.Name, r.Email, r.Currency)
}

type UpdatePlanRequest struct {
	Plan types.PlanTier `json:"plan" validate:"required"`
}

func (r *UpdatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Plan.Validate()
}

type BusinessResponse struct {
	*business.Business
}

func NewBusinessResponse(b *business.Business) *BusinessResponse {
	return &BusinessResponse{Business: b}
}
