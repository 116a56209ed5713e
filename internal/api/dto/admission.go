package dto

import (
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/admission"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// UsageSnapshotResponse is the read model the UI polls to render plan usage
type UsageSnapshotResponse struct {
	BusinessID    string               `json:"business_id"`
	Plan          types.PlanTier       `json:"plan"`
	Scope         types.UsageScopeKind `json:"scope"`
	AllTimeCount  int                  `json:"all_time_count"`
	MonthCount    int                  `json:"month_count"`
	CreditBalance int                  `json:"credit_balance"`
	Period        types.LimitPeriod    `json:"period"`
	Limit         *int                 `json:"limit"`
	Remaining     *int                 `json:"remaining"`
	MonthStart    time.Time            `json:"month_start"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

func NewUsageSnapshotResponse(businessID string, plan types.PlanTier, scope types.UsageScopeKind,
	allTime, month, balance int, quota admission.Quota, monthStart, now time.Time,
) *UsageSnapshotResponse {
	return &UsageSnapshotResponse{
		BusinessID:    businessID,
		Plan:          plan,
		Scope:         scope,
		AllTimeCount:  allTime,
		MonthCount:    month,
		CreditBalance: balance,
		Period:        quota.Period,
		Limit:         quota.Limit,
		Remaining:     quota.Remaining,
		MonthStart:    monthStart,
		GeneratedAt:   now,
	}
}

// DenialResponse tells the caller the invoice was not admitted and where to
// send the user next
type DenialResponse struct {
	Denied bool                   `json:"denied"`
	Reason types.DenialReason     `json:"reason"`
	Signal types.DenialSignal     `json:"signal"`
	Usage  *UsageSnapshotResponse `json:"usage,omitempty"`
}

// AdmissionResult holds exactly one of Invoice or Denial
type AdmissionResult struct {
	Invoice     *InvoiceResponse       `json:"invoice,omitempty"`
	Denial      *DenialResponse        `json:"denial,omitempty"`
	Outcome     types.AdmissionOutcome `json:"outcome"`
	CreditsUsed int                    `json:"credits_used"`
}

func (r *AdmissionResult) Admitted() bool {
	return r.Invoice != nil
}
