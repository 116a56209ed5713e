package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	"github.com/radu9120/ZeroDue-sub000/internal/cache"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/admission"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// AdmissionService is the single entry point for creating invoices. It
// decides whether the business may create one more invoice and, if so,
// persists it with the next number, all under the business row lock.
type AdmissionService interface {
	// RequestCreation admits or denies one invoice. A denial is a normal
	// result, not an error. Errors marked ErrTransient may be retried by the
	// caller.
	RequestCreation(ctx context.Context, businessID string, req dto.CreateInvoiceRequest) (*dto.AdmissionResult, error)

	// GetUsageSnapshot returns the read only usage projection the UI polls
	GetUsageSnapshot(ctx context.Context, businessID string) (*dto.UsageSnapshotResponse, error)
}

type admissionService struct {
	ServiceParams
	usage    UsageService
	sequence SequenceService
	limits   admission.Limits
}

func NewAdmissionService(params ServiceParams, usage UsageService, sequence SequenceService) AdmissionService {
	return &admissionService{
		ServiceParams: params,
		usage:         usage,
		sequence:      sequence,
		limits:        params.Config.Admission.Limits(),
	}
}

// usageCounts is what one attempt read under the lock
type usageCounts struct {
	allTime int
	month   int
	balance int
}

func (s *admissionService) RequestCreation(ctx context.Context, businessID string, req dto.CreateInvoiceRequest) (*dto.AdmissionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		result  *dto.AdmissionResult
		attempt int
	)
	operation := func() error {
		attempt++
		res, err := s.attempt(ctx, businessID, req, attempt)
		if err == nil {
			result = res
			return nil
		}
		if ierr.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		s.Logger.Warnw("retrying invoice admission after transient failure",
			"business_id", businessID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, s.retryPolicy(ctx), notify); err != nil {
		// context errors surface unclassified when the caller gives up
		return nil, postgres.ClassifyError(err, "request invoice creation")
	}
	return result, nil
}

func (s *admissionService) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	if s.Config.Backend.RetryInitialInterval > 0 {
		policy.InitialInterval = s.Config.Backend.RetryInitialInterval
	}
	policy.MaxElapsedTime = 0

	retries := max(s.Config.Backend.RetryMaxAttempts-1, 0)
	return backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)
}

// attempt runs one gather, decide, commit cycle in a single transaction
// bounded by the backend timeout
func (s *admissionService) attempt(ctx context.Context, businessID string, req dto.CreateInvoiceRequest, attempt int) (*dto.AdmissionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Config.Backend.Timeout)
	defer cancel()

	span, ctx := s.Sentry.StartAdmissionSpan(ctx, businessID, attempt)
	if span != nil {
		defer span.Finish()
	}

	var (
		result *dto.AdmissionResult
		locked *business.Business
	)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.lockBusiness(ctx, businessID)
		if err != nil {
			return err
		}
		locked = b

		counts, err := s.gather(ctx, b)
		if err != nil {
			return err
		}

		decision := s.limits.Decide(b.Plan, counts.allTime, counts.month, counts.balance)
		creditsUsed := 0

		if decision.Outcome == types.AdmissionAllowViaCredit {
			consumed, err := s.CreditRepo.TryConsumeOne(ctx, b.ID)
			if err != nil {
				return err
			}
			if consumed {
				creditsUsed = 1
				counts.balance--
			} else {
				if counts.balance, err = s.CreditRepo.GetBalance(ctx, b.ID); err != nil {
					return err
				}
				decision = s.limits.Decide(b.Plan, counts.allTime, counts.month, counts.balance)
				if decision.Outcome == types.AdmissionAllowViaCredit {
					// the row lock makes this unreachable unless the balance
					// was changed outside the lock, let the retry read again
					return ierr.NewError("credit balance changed during admission").
						WithHint("Please retry the request").
						Mark(ierr.ErrTransient)
				}
			}
		}

		if !decision.Allowed() {
			result = &dto.AdmissionResult{
				Outcome: decision.Outcome,
				Denial: &dto.DenialResponse{
					Denied: true,
					Reason: decision.Reason,
					Signal: types.SignalNeedsPayment,
					Usage:  s.snapshot(b, counts),
				},
			}
			return nil
		}

		inv, err := s.insertWithNumber(ctx, b, req)
		if err != nil {
			return err
		}

		result = &dto.AdmissionResult{
			Outcome:     decision.Outcome,
			Invoice:     dto.NewInvoiceResponse(inv),
			CreditsUsed: creditsUsed,
		}
		return nil
	})
	if err != nil {
		return nil, postgres.ClassifyError(err, "admit invoice")
	}

	if result.Admitted() {
		s.afterAdmission(ctx, locked, result)
	} else {
		s.Logger.Infow("invoice creation denied",
			"business_id", businessID,
			"plan", locked.Plan,
			"reason", result.Denial.Reason,
		)
	}
	return result, nil
}

// lockBusiness takes the row locks that serialise admissions. Under owner
// scope every business of the owner is locked in id order, so admissions of
// sibling businesses cannot both pass a shared limit.
func (s *admissionService) lockBusiness(ctx context.Context, businessID string) (*business.Business, error) {
	if s.limits.ProfessionalScope != types.UsageScopeOwner {
		b, err := s.BusinessRepo.GetForUpdate(ctx, businessID)
		if err != nil {
			return nil, err
		}
		return b, authorize(ctx, b)
	}

	b, err := s.BusinessRepo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, b); err != nil {
		return nil, err
	}

	owned, err := s.BusinessRepo.LockByOwner(ctx, b.OwnerID)
	if err != nil {
		return nil, err
	}
	locked, ok := lo.Find(owned, func(o *business.Business) bool {
		return o.ID == businessID
	})
	if !ok {
		return nil, ierr.NewError("business not found").
			WithHintf("Business %s was not found", businessID).
			Mark(ierr.ErrNotFound)
	}
	return locked, nil
}

func (s *admissionService) gather(ctx context.Context, b *business.Business) (usageCounts, error) {
	scope := s.scopeFor(b)

	allTime, err := s.usage.CountAllTime(ctx, scope)
	if err != nil {
		return usageCounts{}, err
	}
	month, err := s.usage.CountCurrentMonth(ctx, scope)
	if err != nil {
		return usageCounts{}, err
	}

	// the locked row already carries the balance
	return usageCounts{allTime: allTime, month: month, balance: b.ExtraInvoiceCredits}, nil
}

// insertWithNumber allocates the next number and inserts the invoice, each
// try in its own savepoint. A unique violation means another writer took the
// number, so the try is rolled back and repeated with a fresh one.
func (s *admissionService) insertWithNumber(ctx context.Context, b *business.Business, req dto.CreateInvoiceRequest) (*invoice.Invoice, error) {
	maxAttempts := max(s.Config.Admission.SequenceMaxAttempts, 1)
	draft := req.ToDraft(b.Currency)

	var lastErr error
	for try := 1; try <= maxAttempts; try++ {
		inv := invoice.FromDraft(ctx, b.ID, b.OwnerID, draft, s.now())

		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			_, seq, err := s.sequence.NextNumber(ctx, b.ID)
			if err != nil {
				return err
			}
			inv.AssignNumber(seq)
			return s.InvoiceRepo.Create(ctx, inv)
		})
		if err == nil {
			return inv, nil
		}
		if !ierr.IsSequenceConflict(err) {
			return nil, err
		}

		lastErr = err
		s.Logger.Warnw("invoice number conflict, allocating a new number",
			"business_id", b.ID,
			"invoice_number", inv.InvoiceNumber,
			"try", try,
		)
	}

	return nil, ierr.WithError(lastErr).
		WithHint("Could not allocate a unique invoice number, please retry").
		WithReportableDetails(map[string]any{
			"business_id": b.ID,
			"attempts":    maxAttempts,
		}).
		Mark(ierr.ErrTransient)
}

func (s *admissionService) afterAdmission(ctx context.Context, b *business.Business, result *dto.AdmissionResult) {
	inv := result.Invoice.Invoice

	s.Logger.Infow("invoice admitted",
		"business_id", b.ID,
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"outcome", result.Outcome,
	)

	// the attempt context may be close to its deadline, the commit already happened
	ctx = context.WithoutCancel(ctx)
	s.invalidateUsage(ctx, b.ID, s.limits.ScopeKind(b.Plan))
	s.publish(ctx, types.EventInvoiceCreated, b.ID, map[string]any{
		"invoice_id":      inv.ID,
		"invoice_number":  inv.InvoiceNumber,
		"sequence_number": inv.SequenceNumber,
		"outcome":         result.Outcome,
		"credits_used":    result.CreditsUsed,
	})
}

func (s *admissionService) scopeFor(b *business.Business) types.UsageScope {
	if s.limits.ScopeKind(b.Plan) == types.UsageScopeOwner {
		return types.OwnerScope(b.OwnerID)
	}
	return types.BusinessScope(b.ID)
}

func (s *admissionService) snapshot(b *business.Business, counts usageCounts) *dto.UsageSnapshotResponse {
	now := s.now()
	monthStart, _ := s.usage.MonthWindow(now)
	return dto.NewUsageSnapshotResponse(
		b.ID, b.Plan, s.limits.ScopeKind(b.Plan),
		counts.allTime, counts.month, counts.balance,
		s.limits.Quota(b.Plan, counts.allTime, counts.month),
		monthStart, now,
	)
}

func (s *admissionService) GetUsageSnapshot(ctx context.Context, businessID string) (*dto.UsageSnapshotResponse, error) {
	b, err := s.getAuthorizedBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	key := cache.GenerateKey(cache.PrefixUsageSnapshot, businessID)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, key); ok {
			if snapshot, ok := cached.(*dto.UsageSnapshotResponse); ok {
				return snapshot, nil
			}
		}
	}

	version := s.usageGuard.current(businessID)
	scope := s.scopeFor(b)
	var counts usageCounts

	// the three reads are independent and none of them takes a lock
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		counts.allTime, err = s.usage.CountAllTime(ctx, scope)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		counts.month, err = s.usage.CountCurrentMonth(ctx, scope)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		counts.balance, err = s.CreditRepo.GetBalance(ctx, b.ID)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	snapshot := s.snapshot(b, counts)
	if s.Cache != nil {
		stored := s.usageGuard.storeIfCurrent(businessID, version, func() {
			s.Cache.Set(ctx, key, snapshot, s.Config.Cache.UsageSnapshotTTL)
		})
		if !stored {
			s.Logger.Debugw("usage changed while computing snapshot, not caching it",
				"business_id", businessID,
			)
		}
	}
	return snapshot, nil
}
