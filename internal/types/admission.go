package types

// AdmissionOutcome is the result of evaluating the plan policy
type AdmissionOutcome string

const (
	AdmissionAllow          AdmissionOutcome = "allow"
	AdmissionAllowViaCredit AdmissionOutcome = "allow_via_credit"
	AdmissionDeny           AdmissionOutcome = "deny"
)

// DenialReason is the machine readable reason attached to a denial
type DenialReason string

const (
	DenialFreeLimitReached    DenialReason = "free_limit_reached"
	DenialMonthlyLimitReached DenialReason = "monthly_limit_reached"
)

// DenialSignal tells the caller which flow to route the user to
type DenialSignal string

const (
	SignalNeedsPayment DenialSignal = "needs_payment"
)

// Decision is the output of the plan policy
type Decision struct {
	Outcome AdmissionOutcome `json:"outcome"`
	Reason  DenialReason     `json:"reason,omitempty"`
}

func (d Decision) Allowed() bool {
	return d.Outcome == AdmissionAllow || d.Outcome == AdmissionAllowViaCredit
}

// LimitPeriod describes the window a tier limit is counted over
type LimitPeriod string

const (
	LimitPeriodLifetime LimitPeriod = "lifetime"
	LimitPeriodMonth    LimitPeriod = "month"
	LimitPeriodNone     LimitPeriod = "none"
)
