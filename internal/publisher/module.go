package publisher

import (
	"context"

	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/pubsub"
	"github.com/radu9120/ZeroDue-sub000/internal/pubsub/kafka"
	"github.com/radu9120/ZeroDue-sub000/internal/pubsub/memory"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"go.uber.org/fx"
)

// Module provides the event transport selected by event.backend and the publisher on top of it
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewPubSub,
			NewEventPublisher,
		),
	)
}

// NewPubSub builds the event transport and closes it when the app stops
func NewPubSub(lc fx.Lifecycle, cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	var (
		ps  pubsub.PubSub
		err error
	)

	switch cfg.Event.Backend {
	case types.PubSubKafka:
		ps, err = kafka.NewPubSub(cfg, logger)
		if err != nil {
			return nil, err
		}
	default:
		ps = memory.NewPubSub(logger)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing event pubsub")
			return ps.Close()
		},
	})
	return ps, nil
}
