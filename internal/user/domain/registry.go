package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexacrud/internal/shared/domain/events"
)

// Agregado y tipos de evento, como valores string.
const (
	UserAggregate = "user"

	UserCreated = UserAggregate + "." + sharedEvents.ActionCreated
	UserUpdated = UserAggregate + "." + sharedEvents.ActionUpdated
	UserDeleted = UserAggregate + "." + sharedEvents.ActionDeleted
)

const UserTopic = "user"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return sharedEvents.NewCrudRegistry(UserAggregate, UserTopic, reflect.TypeOf(User{}))
}
