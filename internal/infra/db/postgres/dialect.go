package postgres

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/davicafu/hexacrud/internal/infra/db/sqldoc"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
)

// Dialect compara sobre jsonb. El JSON null se trata como NULL de SQL.
type Dialect struct{}

var _ sqldoc.Dialect = Dialect{}

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) ValueExpr(column string, path []filter.Segment) string {
	return "NULLIF(" + column + " #> '" + pathLiteral(path) + "', 'null'::jsonb)"
}

func (Dialect) TextExpr(column string, path []filter.Segment) string {
	return "(" + column + " #>> '" + pathLiteral(path) + "')"
}

func (Dialect) Param(placeholder string) string { return placeholder + "::jsonb" }

func (Dialect) Arg(v any) (any, error) {
	return json.Marshal(filter.NormalizeValue(v))
}

func (Dialect) Like(text, pattern string, caseInsensitive bool) string {
	op := " LIKE "
	if caseInsensitive {
		op = " ILIKE "
	}
	return text + op + pattern + " ESCAPE ''"
}

func (Dialect) LikeArg(pattern string, _ bool) string { return pattern }

func (Dialect) Paginate(take, skip int, bind func(any) string) string {
	switch {
	case take > 0:
		return "LIMIT " + bind(take) + " OFFSET " + bind(skip)
	case skip > 0:
		return "OFFSET " + bind(skip)
	}
	return ""
}

func (Dialect) DataArg(doc []byte) any { return doc }

// pathLiteral construye el array de texto '{a,0,b}'.
func pathLiteral(path []filter.Segment) string {
	parts := make([]string, len(path))
	for i, s := range path {
		if s.IsIndex {
			parts[i] = strconv.Itoa(s.Index)
			continue
		}
		parts[i] = s.Name
	}
	return "{" + strings.Join(parts, ",") + "}"
}
