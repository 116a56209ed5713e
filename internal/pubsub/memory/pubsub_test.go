package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := NewPubSub(logger.NewNoopLogger())
	defer ps.Close()

	ch, err := ps.Subscribe(ctx, "zerodue.events")
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, "zerodue.events", message.NewMessage("evt_1", []byte(`{"name":"invoice.created"}`))))

	select {
	case msg := <-ch:
		assert.Equal(t, "evt_1", msg.UUID)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("message was not delivered")
	}
}
