package domain

import (
	"time"

	"github.com/google/uuid"
)

// Base agrupa los campos comunes de toda entidad persistida. Se embebe en las
// entidades concretas (Task, User...).
type Base struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityBase permite a los componentes genéricos acceder a Base.
func (b *Base) EntityBase() *Base { return b }

// Entity la implementa cualquier struct que embeba Base.
type Entity interface {
	EntityBase() *Base
}

// EntityPtr restringe los genéricos a "*T que implementa Entity".
type EntityPtr[T any] interface {
	*T
	Entity
}

// IDOf devuelve el ID de una entidad genérica.
func IDOf[T any, P EntityPtr[T]](e *T) uuid.UUID {
	return P(e).EntityBase().ID
}
