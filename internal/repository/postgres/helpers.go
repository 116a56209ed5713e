package postgres

import (
	"context"
	"database/sql"

	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
)

// requireTx guards statements whose locks are meaningless outside a transaction
func requireTx(ctx context.Context, op string) error {
	if _, ok := postgres.GetTx(ctx); !ok {
		return ierr.NewError(op + " requires a transaction").
			WithHint("Row locks can only be taken inside a transaction").
			Mark(ierr.ErrSystem)
	}
	return nil
}

func requireAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.ClassifyError(err, "rows affected")
	}
	if rows == 0 {
		return ierr.NewError(entity+" not found").
			WithHintf("%s %s was not found", entity, id).
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func notFoundHint(err error, entity, id string) error {
	if !ierr.IsNotFound(err) {
		return err
	}
	return ierr.WithError(err).
		WithHintf("%s %s was not found", entity, id).
		WithReportableDetails(map[string]any{"id": id}).
		Mark(ierr.ErrNotFound)
}
