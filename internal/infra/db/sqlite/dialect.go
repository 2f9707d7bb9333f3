package sqlite

import (
	"encoding/json"
	"strings"

	"github.com/davicafu/hexacrud/internal/infra/db/sqldoc"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
)

// Dialect traduce rutas a json_extract. LIKE de SQLite no distingue
// mayúsculas, así que la variante sensible usa GLOB.
type Dialect struct{}

var _ sqldoc.Dialect = Dialect{}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) ValueExpr(column string, path []filter.Segment) string {
	return "json_extract(" + column + ", '" + jsonPath(path) + "')"
}

func (d Dialect) TextExpr(column string, path []filter.Segment) string {
	return d.ValueExpr(column, path)
}

func (Dialect) Param(placeholder string) string { return placeholder }

// Arg adapta el valor a lo que devuelve json_extract: los booleanos son
// enteros y los objetos texto JSON.
func (Dialect) Arg(v any) (any, error) {
	switch t := filter.NormalizeValue(v).(type) {
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return t, nil
	}
}

func (Dialect) Like(text, pattern string, caseInsensitive bool) string {
	if caseInsensitive {
		return text + " LIKE " + pattern
	}
	return text + " GLOB " + pattern
}

func (Dialect) LikeArg(pattern string, caseInsensitive bool) string {
	if caseInsensitive {
		return pattern
	}
	return likeToGlob(pattern)
}

func (Dialect) Paginate(take, skip int, bind func(any) string) string {
	switch {
	case take > 0:
		return "LIMIT " + bind(take) + " OFFSET " + bind(skip)
	case skip > 0:
		return "LIMIT -1 OFFSET " + bind(skip)
	}
	return ""
}

func (Dialect) DataArg(doc []byte) any { return string(doc) }

// jsonPath construye '$."a"[0]."b"'.
func jsonPath(path []filter.Segment) string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range path {
		if s.IsIndex {
			b.WriteString(s.String())
			continue
		}
		b.WriteString(`."`)
		b.WriteString(s.Name)
		b.WriteString(`"`)
	}
	return b.String()
}

// likeToGlob convierte '%' y '_' a '*' y '?' escapando los comodines de GLOB.
func likeToGlob(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteByte('*')
		case '_':
			b.WriteByte('?')
		case '*', '?', '[':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
