package types

import (
	"fmt"

	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
)

// PlanTier is the subscription level of a business
type PlanTier string

const (
	PlanFree         PlanTier = "free_user"
	PlanProfessional PlanTier = "professional"
	PlanEnterprise   PlanTier = "enterprise"
)

func (p PlanTier) String() string {
	return string(p)
}

func (p PlanTier) Validate() error {
	switch p {
	case PlanFree, PlanProfessional, PlanEnterprise:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid plan tier: %s", p)).
		WithHintf("Plan must be one of %s, %s or %s", PlanFree, PlanProfessional, PlanEnterprise).
		Mark(ierr.ErrValidation)
}

// UsageScopeKind decides whose invoices count towards a tier limit
type UsageScopeKind string

const (
	// UsageScopeBusiness counts invoices of a single business
	UsageScopeBusiness UsageScopeKind = "business"
	// UsageScopeOwner counts invoices across every business the owner holds
	UsageScopeOwner UsageScopeKind = "owner"
)

func (k UsageScopeKind) Validate() error {
	switch k {
	case UsageScopeBusiness, UsageScopeOwner:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid usage scope: %s", k)).
		WithHint("Usage scope must be business or owner").
		Mark(ierr.ErrValidation)
}

// UsageScope identifies the set of invoices a usage count is taken over
type UsageScope struct {
	Kind UsageScopeKind
	ID   string
}

func BusinessScope(businessID string) UsageScope {
	return UsageScope{Kind: UsageScopeBusiness, ID: businessID}
}

func OwnerScope(ownerID string) UsageScope {
	return UsageScope{Kind: UsageScopeOwner, ID: ownerID}
}
