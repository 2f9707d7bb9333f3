package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent representa un evento pendiente de publicar en el broker.
type OutboxEvent struct {
	ID            uuid.UUID   `json:"id"`
	AggregateType string      `json:"aggregate_type"` // ej. "task", "user"
	AggregateID   string      `json:"aggregate_id"`
	EventType     string      `json:"event_type"` // ej. "task.updated"
	Payload       interface{} `json:"payload"`    // JSON serializable
	CreatedAt     time.Time   `json:"created_at"`
	Processed     bool        `json:"processed"`
}

// NewOutboxEvent construye el evento "<aggregate>.<action>".
func NewOutboxEvent(aggregate, action string, aggregateID uuid.UUID, payload interface{}, now time.Time) OutboxEvent {
	return OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregate,
		AggregateID:   aggregateID.String(),
		EventType:     aggregate + "." + action,
		Payload:       payload,
		CreatedAt:     now,
	}
}

// OutboxRepository define el contrato para acceder a la tabla outbox.
// Contiene sólo los métodos que necesita el worker.
type OutboxRepository interface {
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error
}
