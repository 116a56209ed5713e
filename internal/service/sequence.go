package service

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
)

// SequenceService allocates per business invoice numbers
type SequenceService interface {
	// NextNumber advances the business counter and returns the formatted
	// number with its numeric value. Called inside the invoice transaction
	// the counter row stays locked until that transaction ends, so a rolled
	// back admission never burns a number.
	NextNumber(ctx context.Context, businessID string) (string, int64, error)
}

type sequenceService struct {
	ServiceParams
}

func NewSequenceService(params ServiceParams) SequenceService {
	return &sequenceService{ServiceParams: params}
}

func (s *sequenceService) NextNumber(ctx context.Context, businessID string) (string, int64, error) {
	var seq int64
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		seq, err = s.InvoiceRepo.NextSequenceValue(ctx, businessID)
		return err
	})
	if err != nil {
		return "", 0, err
	}
	return invoice.FormatInvoiceNumber(seq), seq, nil
}
