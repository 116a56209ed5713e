package postgres

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	sentryService "github.com/radu9120/ZeroDue-sub000/internal/sentry"
)

// SentryClient wraps the postgres client with Sentry monitoring
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

// NewSentryClient creates a new Sentry-instrumented Postgres client
func NewSentryClient(client IClient, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return &SentryClient{
		client: client,
		sentry: sentry,
		logger: logger,
	}
}

// WithTx wraps the given function in a transaction with Sentry span tracking
func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	span, spanCtx := c.sentry.StartDBSpan(ctx, "postgres.transaction", map[string]interface{}{
		"operation": "transaction",
		"nested":    isNested(ctx),
	})
	if span != nil {
		defer span.Finish()
	}

	err := c.client.WithTx(spanCtx, fn)
	if err != nil && !isNested(ctx) && shouldReport(err) {
		c.sentry.CaptureException(err)
	}
	return err
}

// Ping delegates to the wrapped client when it supports liveness checks
func (c *SentryClient) Ping(ctx context.Context) error {
	if p, ok := c.client.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func isNested(ctx context.Context) bool {
	_, ok := GetTx(ctx)
	return ok
}
