package domain

import (
	"context"
	"errors"
	"time"

	sharedEvents "github.com/davicafu/hexacrud/internal/shared/domain/events"
)

var ErrInvalidRange = errors.New("invalid time range")

// LoggedEvent es una fila del registro de eventos CRUD.
type LoggedEvent struct {
	EventID       string
	EventType     string
	AggregateType string
	AggregateID   string
	Payload       string
	OccurredAt    time.Time
}

// EventTypeCount agrega el número de eventos por tipo.
type EventTypeCount struct {
	EventType string `json:"eventType"`
	Count     uint64 `json:"count"`
}

// EventLogRepository es el almacén analítico de eventos.
type EventLogRepository interface {
	LogBatch(ctx context.Context, events []LoggedEvent) error
	// CountByEventType cuenta los eventos con OccurredAt en [start, end).
	CountByEventType(ctx context.Context, start, end time.Time) ([]EventTypeCount, error)
}

// FromIntegrationEvent aplana un evento de integración.
func FromIntegrationEvent(e sharedEvents.IntegrationEvent) LoggedEvent {
	return LoggedEvent{
		EventID:       e.ID,
		EventType:     e.Type,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Payload:       string(e.Data),
		OccurredAt:    e.Timestamp,
	}
}
