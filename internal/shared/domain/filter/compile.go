// Package filter compila peticiones de filtrado dinámico (filtros, lógica,
// orden y paginación) en un descriptor de consulta independiente del backend.
//
// La compilación es una función pura: no guarda estado, no hace E/S y no
// modifica la petición, por lo que puede invocarse concurrentemente.
package filter

import "strings"

// Logic combina los filtros de una lista.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// ParseLogic no distingue mayúsculas. La cadena vacía equivale a AND.
func ParseLogic(s string) (Logic, error) {
	switch {
	case s == "", strings.EqualFold(s, string(LogicAnd)):
		return LogicAnd, nil
	case strings.EqualFold(s, string(LogicOr)):
		return LogicOr, nil
	default:
		return "", invalidf("logic", "unknown logic %q, expected AND or OR", s)
	}
}

// Compile traduce la petición en un Query. Falla con *InvalidFilterError
// antes de que se ejecute nada contra el backend.
func Compile(f Filter) (Query, error) {
	var q Query

	logic, err := ParseLogic(f.Logic)
	if err != nil {
		return Query{}, err
	}

	if !f.Filters.IsZero() {
		where, err := buildWhere(f.Filters, logic)
		if err != nil {
			return Query{}, err
		}
		q.Where = where
	}

	if f.Order != nil {
		order, err := buildOrder(f.Order)
		if err != nil {
			return Query{}, err
		}
		q.Order = order
	}

	if f.Pagination != nil {
		skip, take, err := buildPagination(*f.Pagination)
		if err != nil {
			return Query{}, err
		}
		q.Skip, q.Take = skip, take
	}

	return q, nil
}

// buildWhere: una consulta -> una rama; OR -> una rama por consulta;
// AND -> una rama con todas las cláusulas (la última gana si se repite la ruta).
func buildWhere(filters Filters, logic Logic) ([]Predicate, error) {
	queries := filters.queries
	if len(queries) == 0 {
		return nil, nil
	}

	if filters.IsSingle() || logic == LogicOr {
		branches := make([]Predicate, 0, len(queries))
		for _, sq := range queries {
			p, err := leafPredicate(sq)
			if err != nil {
				return nil, err
			}
			branches = append(branches, p)
		}
		return branches, nil
	}

	index := make(map[string]int, len(queries))
	var entries []entry
	for _, sq := range queries {
		c, err := resolveQuery(sq)
		if err != nil {
			return nil, err
		}
		// Clave canónica: "a[01]" y "a[1]" son el mismo campo.
		key := sq.By
		if segs, err := ParsePath(sq.By); err == nil {
			key = JoinPath(segs)
		}
		if i, seen := index[key]; seen {
			entries[i].clause = c
			continue
		}
		index[key] = len(entries)
		entries = append(entries, entry{path: sq.By, clause: c})
	}

	p, err := unflatten(entries)
	if err != nil {
		return nil, err
	}
	return []Predicate{p}, nil
}

func leafPredicate(sq SearchQuery) (Predicate, error) {
	c, err := resolveQuery(sq)
	if err != nil {
		return nil, err
	}
	return unflatten([]entry{{path: sq.By, clause: c}})
}

func resolveQuery(sq SearchQuery) (Clause, error) {
	if sq.By == "" {
		return Clause{}, invalid("by", "field path is required")
	}
	if _, err := ParsePath(sq.By); err != nil {
		return Clause{}, err
	}
	return resolve(sq.By, sq.Operator, sq.Value)
}

// buildOrder conserva la posición de la primera aparición de cada campo;
// una repetición sólo sustituye la dirección.
func buildOrder(orders []Order) ([]OrderTerm, error) {
	terms := make([]OrderTerm, 0, len(orders))
	index := make(map[string]int, len(orders))
	for _, o := range orders {
		if o.By == "" {
			return nil, invalid("order", "order field is required")
		}
		if _, err := ParsePath(o.By); err != nil {
			return nil, err
		}
		var dir Direction
		switch {
		case strings.EqualFold(o.Operator, string(Asc)):
			dir = Asc
		case strings.EqualFold(o.Operator, string(Desc)):
			dir = Desc
		default:
			return nil, invalidf(o.By, "unknown order direction %q, expected ASC or DESC", o.Operator)
		}
		if i, seen := index[o.By]; seen {
			terms[i].Direction = dir
			continue
		}
		index[o.By] = len(terms)
		terms = append(terms, OrderTerm{Field: o.By, Direction: dir})
	}
	return terms, nil
}

func buildPagination(p Pagination) (skip, take int, err error) {
	if p.Page < 1 {
		return 0, 0, invalidf("pagination.page", "must be a positive integer, got %d", p.Page)
	}
	if p.PageSize < 1 {
		return 0, 0, invalidf("pagination.pageSize", "must be a positive integer, got %d", p.PageSize)
	}
	return (p.Page - 1) * p.PageSize, p.PageSize, nil
}
