package admission

import (
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// Limits holds the tier thresholds. The zero value denies everything on free
// and professional, use DefaultLimits or NewLimits.
type Limits struct {
	FreeLifetime        int
	ProfessionalMonthly int
	ProfessionalScope   types.UsageScopeKind
}

const (
	DefaultFreeLifetime        = 1
	DefaultProfessionalMonthly = 10
)

func DefaultLimits() Limits {
	return Limits{
		FreeLifetime:        DefaultFreeLifetime,
		ProfessionalMonthly: DefaultProfessionalMonthly,
		ProfessionalScope:   types.UsageScopeBusiness,
	}
}

func NewLimits(freeLifetime, professionalMonthly int, professionalScope types.UsageScopeKind) Limits {
	if professionalScope == "" {
		professionalScope = types.UsageScopeBusiness
	}
	return Limits{
		FreeLifetime:        freeLifetime,
		ProfessionalMonthly: professionalMonthly,
		ProfessionalScope:   professionalScope,
	}
}

// EffectivePlan maps unknown tiers onto the most restrictive one
func EffectivePlan(plan types.PlanTier) types.PlanTier {
	if plan.Validate() != nil {
		return types.PlanFree
	}
	return plan
}

// Period reports which window the plan limit is counted over
func Period(plan types.PlanTier) types.LimitPeriod {
	switch EffectivePlan(plan) {
	case types.PlanEnterprise:
		return types.LimitPeriodNone
	case types.PlanProfessional:
		return types.LimitPeriodMonth
	default:
		return types.LimitPeriodLifetime
	}
}

// ScopeKind reports whose invoices count towards the plan limit.
// Free is always counted per business.
func (l Limits) ScopeKind(plan types.PlanTier) types.UsageScopeKind {
	if EffectivePlan(plan) == types.PlanProfessional {
		return l.ProfessionalScope
	}
	return types.UsageScopeBusiness
}

// Decide evaluates the tier limit first, then the credit balance.
// It performs no I/O.
func (l Limits) Decide(plan types.PlanTier, allTimeCount, monthCount, creditBalance int) types.Decision {
	var reason types.DenialReason

	switch EffectivePlan(plan) {
	case types.PlanEnterprise:
		return types.Decision{Outcome: types.AdmissionAllow}
	case types.PlanProfessional:
		if monthCount < l.ProfessionalMonthly {
			return types.Decision{Outcome: types.AdmissionAllow}
		}
		reason = types.DenialMonthlyLimitReached
	default:
		if allTimeCount < l.FreeLifetime {
			return types.Decision{Outcome: types.AdmissionAllow}
		}
		reason = types.DenialFreeLimitReached
	}

	if creditBalance > 0 {
		return types.Decision{Outcome: types.AdmissionAllowViaCredit}
	}
	return types.Decision{Outcome: types.AdmissionDeny, Reason: reason}
}

// Quota is the "X of Y invoices used" view of a plan limit.
// Limit and Remaining are nil for unlimited plans.
type Quota struct {
	Period    types.LimitPeriod `json:"period"`
	Limit     *int              `json:"limit"`
	Used      int               `json:"used"`
	Remaining *int              `json:"remaining"`
}

func (l Limits) Quota(plan types.PlanTier, allTimeCount, monthCount int) Quota {
	period := Period(plan)

	var limit, used int
	switch period {
	case types.LimitPeriodNone:
		return Quota{Period: period, Used: monthCount}
	case types.LimitPeriodMonth:
		limit, used = l.ProfessionalMonthly, monthCount
	default:
		limit, used = l.FreeLifetime, allTimeCount
	}

	remaining := max(limit-used, 0)
	return Quota{
		Period:    period,
		Limit:     &limit,
		Used:      used,
		Remaining: &remaining,
	}
}
