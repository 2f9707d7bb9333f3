package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexacrud/internal/shared/domain/events"
)

// Agregado y tipos de evento, como valores string.
const (
	TaskAggregate = "task"

	TaskCreated = TaskAggregate + "." + sharedEvents.ActionCreated
	TaskUpdated = TaskAggregate + "." + sharedEvents.ActionUpdated
	TaskDeleted = TaskAggregate + "." + sharedEvents.ActionDeleted
)

const TaskTopic = "task"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return sharedEvents.NewCrudRegistry(TaskAggregate, TaskTopic, reflect.TypeOf(Task{}))
}
