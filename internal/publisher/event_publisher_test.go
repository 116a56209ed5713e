package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/config"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/events"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/pubsub/memory"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWritesToConfiguredTopic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.GetDefaultConfig()
	ps := memory.NewPubSub(logger.NewNoopLogger())
	defer ps.Close()

	ch, err := ps.Subscribe(ctx, cfg.Event.Topic)
	require.NoError(t, err)

	pub := NewEventPublisher(cfg, logger.NewNoopLogger(), ps)
	event := events.NewEvent(types.SetUserID(ctx, "user_1"), types.EventInvoiceCreated, "biz_1", map[string]any{
		"invoice_number": "INV0001",
	})
	require.NoError(t, pub.Publish(ctx, event))

	select {
	case msg := <-ch:
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(types.EventInvoiceCreated), msg.Metadata.Get("event_name"))

		var got events.Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "biz_1", got.BusinessID)
		assert.Equal(t, "user_1", got.OwnerID)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}
