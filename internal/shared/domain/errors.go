package domain

import (
	"errors"
	"fmt"
)

// ---------- Errores de dominio ----------
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrQuery         = errors.New("query error")
)

// QueryError envuelve el error del backend al ejecutar un filtro.
// Conserva la causa original para diagnóstico.
type QueryError struct {
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *QueryError) Unwrap() error { return e.Cause }

func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// NotFoundError añade el agregado y el id a ErrNotFound.
func NotFoundError(aggregate, id string) error {
	return fmt.Errorf("%s %s: %w", aggregate, id, ErrNotFound)
}
