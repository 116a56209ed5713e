package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/events"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/pubsub"
)

// EventPublisher publishes domain events once the change they describe has committed
type EventPublisher interface {
	Publish(ctx context.Context, event *events.Event) error
}

type eventPublisher struct {
	pubsub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewEventPublisher creates a publisher on the configured event topic
func NewEventPublisher(cfg *config.Configuration, logger *logger.Logger, ps pubsub.PubSub) EventPublisher {
	return &eventPublisher{
		pubsub: ps,
		topic:  cfg.Event.Topic,
		logger: logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event *events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal domain event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_name", string(event.Name))
	msg.Metadata.Set("business_id", event.BusinessID)

	p.logger.Debugw("publishing event",
		"event_id", event.ID,
		"event_name", event.Name,
		"business_id", event.BusinessID,
		"topic", p.topic,
	)

	if err := p.pubsub.Publish(ctx, p.topic, msg); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to publish %s event", event.Name).
			Mark(ierr.ErrTransient)
	}
	return nil
}
