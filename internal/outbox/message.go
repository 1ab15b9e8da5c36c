package outbox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"bank/internal/domain"
)

// NewMessage wraps event as a PENDING outbox row keyed by the aggregate id so
// all events of one card or account land on the same partition.
func NewMessage(topic, aggregateType string, aggregateID int64, eventType domain.EventType, event any) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	id := strconv.FormatInt(aggregateID, 10)
	return &domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateID:   id,
		AggregateType: aggregateType,
		MessageType:   string(eventType),
		Topic:         topic,
		Key:           aggregateType + "-" + id,
		Payload:       payload,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}
