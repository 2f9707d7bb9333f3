package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// Acciones CRUD que generan eventos.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"` // contenido específico del evento

	// Topic no viaja en el mensaje: lo usa el bus para enrutar.
	Topic string `json:"-"`
}

// PartitionKey agrupa en la misma partición los eventos de un agregado.
func (e IntegrationEvent) PartitionKey() string {
	return e.AggregateID
}

// EventTopic devuelve el topic de destino.
func (e IntegrationEvent) EventTopic() string {
	return e.Topic
}

type EventMetadata struct {
	Type  reflect.Type
	Topic string
}

// DeletedPayload es el payload de los eventos "<aggregate>.deleted".
type DeletedPayload struct {
	ID string `json:"id"`
}

// NewCrudRegistry registra los tres eventos CRUD de un agregado.
func NewCrudRegistry(aggregate, topic string, entity reflect.Type) map[string]EventMetadata {
	return map[string]EventMetadata{
		aggregate + "." + ActionCreated: {Type: entity, Topic: topic},
		aggregate + "." + ActionUpdated: {Type: entity, Topic: topic},
		aggregate + "." + ActionDeleted: {Type: reflect.TypeOf(DeletedPayload{}), Topic: topic},
	}
}

// MergeRegistries une los registros de cada dominio.
func MergeRegistries(registries ...map[string]EventMetadata) map[string]EventMetadata {
	merged := make(map[string]EventMetadata)
	for _, r := range registries {
		for k, v := range r {
			merged[k] = v
		}
	}
	return merged
}
