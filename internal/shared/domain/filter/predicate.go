package filter

import (
	"fmt"
	"sort"
	"strings"
)

// Predicate es una conjunción de cláusulas anidada por ruta de campo. Los valores
// son Predicate (tramo nombre), []any (tramo índice, con nil en los huecos) o Clause.
// Una vez devuelto por Compile no debe modificarse.
type Predicate map[string]any

// Direction es la dirección de una clave de ordenación.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderTerm es una entrada del mapeo campo -> dirección, en orden de precedencia.
type OrderTerm struct {
	Field     string
	Direction Direction
}

// Query es el descriptor agnóstico que ejecuta un backend de almacenamiento.
//   - Where == nil: sin restricciones. Si no, disyunción (OR) de sus ramas.
//   - Take == 0: sin límite.
type Query struct {
	Where []Predicate
	Order []OrderTerm
	Skip  int
	Take  int
}

// OrderMap devuelve el orden como mapeo (pierde la precedencia; útil en logs y tests).
func (q Query) OrderMap() map[string]Direction {
	if q.Order == nil {
		return nil
	}
	m := make(map[string]Direction, len(q.Order))
	for _, t := range q.Order {
		m[t.Field] = t.Direction
	}
	return m
}

// Leaf es una cláusula junto a su ruta completa.
type Leaf struct {
	Path   []Segment
	Clause Clause
}

// Field devuelve la ruta en notación plana ("a.b[0]").
func (l Leaf) Field() string { return JoinPath(l.Path) }

// Leaves aplana el predicado en orden determinista (claves ordenadas, índices ascendentes).
func (p Predicate) Leaves() []Leaf {
	var leaves []Leaf
	_ = p.Walk(func(path []Segment, c Clause) error {
		leaves = append(leaves, Leaf{Path: path, Clause: c})
		return nil
	})
	return leaves
}

// Walk recorre las cláusulas en orden determinista. Se detiene con el primer error.
func (p Predicate) Walk(fn func(path []Segment, c Clause) error) error {
	return walk(p, nil, fn)
}

func walk(node any, prefix []Segment, fn func([]Segment, Clause) error) error {
	switch n := node.(type) {
	case Clause:
		path := make([]Segment, len(prefix))
		copy(path, prefix)
		return fn(path, n)
	case Predicate:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := walk(n[k], append(prefix, Segment{Name: k}), fn); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range n {
			if item == nil {
				continue
			}
			if err := walk(item, append(prefix, Segment{Index: i, IsIndex: true}), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p Predicate) String() string {
	leaves := p.Leaves()
	parts := make([]string, len(leaves))
	for i, l := range leaves {
		parts[i] = l.Field() + ": " + l.Clause.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func formatValues(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}
