package domain

import (
	"context"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/google/uuid"
)

// Repository es el puerto de persistencia genérico de una entidad.
// Las escrituras reciben el evento de outbox y deben guardarlo en la misma transacción.
type Repository[T any] interface {
	// Debe devolver ErrAlreadyExists si el ID ya existe.
	Create(ctx context.Context, e *T, evt OutboxEvent) error

	// Debe devolver ErrNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)

	// Debe devolver ErrNotFound si no existe.
	Update(ctx context.Context, e *T, evt OutboxEvent) error

	// Debe devolver ErrNotFound si no existe.
	DeleteByID(ctx context.Context, id uuid.UUID, evt OutboxEvent) error

	// Find ejecuta un descriptor compilado. Un Query vacío devuelve todo.
	Find(ctx context.Context, q filter.Query) ([]*T, error)
}
