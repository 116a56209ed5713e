package service

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/api/dto"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/samber/lo"
)

// InvoiceService serves the read side of invoices. Creation goes through
// AdmissionService.
type InvoiceService interface {
	GetInvoice(ctx context.Context, businessID, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) GetInvoice(ctx context.Context, businessID, id string) (*dto.InvoiceResponse, error) {
	if _, err := s.getAuthorizedBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter("")
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.getAuthorizedBusiness(ctx, filter.BusinessID); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListInvoicesResponse{
		Items: lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
			return dto.NewInvoiceResponse(inv)
		}),
		Pagination: dto.PaginationResponse{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}, nil
}
