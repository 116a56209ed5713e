package postgres

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/sentry"
	"go.uber.org/fx"
)

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction. Calls nested inside
	// an open transaction run in a savepoint.
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// Pinger is implemented by clients that can report database liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// Module provides an fx.Option to integrate the postgres client with the application
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
	)
}

// NewClient returns the transaction client used by the services
func NewClient(db *DB, sentry *sentry.Service, logger *logger.Logger) IClient {
	return NewSentryClient(db, sentry, logger)
}
