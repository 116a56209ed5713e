package events

import (
	"context"
	"time"

	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

// Event is a domain event emitted after a state change has committed
type Event struct {
	ID         string                `json:"id"`
	Name       types.DomainEventName `json:"name"`
	BusinessID string                `json:"business_id"`
	OwnerID    string                `json:"owner_id,omitempty"`
	RequestID  string                `json:"request_id,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
	Payload    map[string]any        `json:"payload,omitempty"`
}

func NewEvent(ctx context.Context, name types.DomainEventName, businessID string, payload map[string]any) *Event {
	return &Event{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		Name:       name,
		BusinessID: businessID,
		OwnerID:    types.GetUserID(ctx),
		RequestID:  types.GetRequestID(ctx),
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}
