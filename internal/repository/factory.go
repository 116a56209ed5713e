package repository

import (
	"github.com/radu9120/ZeroDue-sub000/internal/domain/business"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/invoice"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	postgresRepo "github.com/radu9120/ZeroDue-sub000/internal/repository/postgres"
	"go.uber.org/fx"
)

// Module provides the postgres backed repositories
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewBusinessRepository,
			NewInvoiceRepository,
			NewCreditRepository,
		),
	)
}

func NewBusinessRepository(db *postgres.DB, logger *logger.Logger) business.Repository {
	return postgresRepo.NewBusinessRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewCreditRepository(db *postgres.DB, logger *logger.Logger) credit.Repository {
	return postgresRepo.NewCreditRepository(db, logger)
}
