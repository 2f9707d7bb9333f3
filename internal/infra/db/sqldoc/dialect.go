// Package sqldoc guarda entidades como documentos JSON en una tabla SQL
// (id, data, created_at, updated_at) y traduce filter.Query a SQL.
// Cada motor aporta un Dialect.
package sqldoc

import (
	"fmt"
	"regexp"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
)

// Dialect aísla las diferencias de sintaxis entre motores.
type Dialect interface {
	// Placeholder devuelve el marcador del argumento n (base 1).
	Placeholder(n int) string

	// ValueExpr extrae el valor JSON en path, comparable con Param.
	ValueExpr(column string, path []filter.Segment) string

	// TextExpr extrae el valor en path como texto (para LIKE).
	TextExpr(column string, path []filter.Segment) string

	// Param envuelve un placeholder para compararlo con ValueExpr.
	Param(placeholder string) string

	// Arg convierte un valor del filtro en el argumento que espera el driver.
	Arg(v any) (any, error)

	// Like construye la condición de patrón. pattern es el placeholder ya enlazado.
	Like(text, pattern string, caseInsensitive bool) string

	// LikeArg adapta el patrón SQL LIKE a lo que consume Like.
	LikeArg(pattern string, caseInsensitive bool) string

	// Paginate devuelve la cláusula LIMIT/OFFSET usando bind para los argumentos.
	Paginate(take, skip int, bind func(any) string) string

	// DataArg adapta el documento serializado para escribirlo en la columna data.
	DataArg(doc []byte) any
}

var (
	identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	// Los nombres de campo se incrustan en la expresión de ruta JSON.
	segmentRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// ValidateTable comprueba que el nombre de tabla sea un identificador simple.
func ValidateTable(table string) error {
	if !identifierRe.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// CheckPath rechaza segmentos que no puedan incrustarse sin escapar.
func CheckPath(path []filter.Segment) error {
	for _, s := range path {
		if s.IsIndex {
			continue
		}
		if !segmentRe.MatchString(s.Name) {
			return fmt.Errorf("unsupported field name %q", s.Name)
		}
	}
	return nil
}
