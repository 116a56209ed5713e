package service

import (
	"context"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// UsageService counts the invoices that count towards a plan limit
type UsageService interface {
	// CountAllTime counts every invoice ever created in scope
	CountAllTime(ctx context.Context, scope types.UsageScope) (int, error)

	// CountCurrentMonth counts invoices in scope created during the current
	// calendar month of the configured time zone
	CountCurrentMonth(ctx context.Context, scope types.UsageScope) (int, error)

	// MonthWindow returns the calendar month containing at as [start, end)
	MonthWindow(at time.Time) (time.Time, time.Time)
}

type usageService struct {
	ServiceParams
	location *time.Location
}

func NewUsageService(params ServiceParams) UsageService {
	loc, err := params.Config.Admission.Location()
	if err != nil {
		// config validation rejects unknown zones before services are built
		params.Logger.Warnw("falling back to UTC for usage window",
			"timezone", params.Config.Admission.Timezone,
			"error", err,
		)
		loc = time.UTC
	}
	return &usageService{ServiceParams: params, location: loc}
}

func (s *usageService) CountAllTime(ctx context.Context, scope types.UsageScope) (int, error) {
	if err := scope.Kind.Validate(); err != nil {
		return 0, err
	}
	return s.InvoiceRepo.CountByScope(ctx, scope)
}

func (s *usageService) CountCurrentMonth(ctx context.Context, scope types.UsageScope) (int, error) {
	if err := scope.Kind.Validate(); err != nil {
		return 0, err
	}
	start, end := s.MonthWindow(s.now())
	return s.InvoiceRepo.CountByScopeBetween(ctx, scope, start, end)
}

// MonthWindow ends at the first instant of the next month rather than at
// now, so an invoice stamped with the current instant is still counted.
func (s *usageService) MonthWindow(at time.Time) (time.Time, time.Time) {
	local := at.In(s.location)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.location)
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}
