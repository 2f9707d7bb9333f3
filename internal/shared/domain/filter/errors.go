package filter

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter es el sentinel de cualquier petición de filtrado mal formada.
var ErrInvalidFilter = errors.New("invalid filter")

// InvalidFilterError identifica el campo (o atributo) que provocó el fallo.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid filter: %s", e.Reason)
	}
	return fmt.Sprintf("invalid filter on %q: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidFilter).
func (e *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

func invalid(field, reason string) error {
	return &InvalidFilterError{Field: field, Reason: reason}
}

func invalidf(field, format string, args ...any) error {
	return &InvalidFilterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
