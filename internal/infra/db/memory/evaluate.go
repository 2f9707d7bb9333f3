package memory

import (
	"reflect"
	"sort"
	"strings"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
)

// Los documentos se evalúan en su forma JSON genérica (map[string]any,
// []any, float64, string, bool, nil), igual que los guardan los backends SQL.

// Matches indica si el documento cumple el Where (disyunción de ramas).
func Matches(doc map[string]any, where []filter.Predicate) bool {
	if where == nil {
		return true
	}
	for _, branch := range where {
		if matchBranch(doc, branch) {
			return true
		}
	}
	return false
}

func matchBranch(doc map[string]any, p filter.Predicate) bool {
	ok := true
	_ = p.Walk(func(path []filter.Segment, c filter.Clause) error {
		value, found := lookup(doc, path)
		if !matchClause(value, found, c) {
			ok = false
			return errStop
		}
		return nil
	})
	return ok
}

type stopError struct{}

func (stopError) Error() string { return "stop" }

var errStop error = stopError{}

func lookup(doc any, path []filter.Segment) (any, bool) {
	current := doc
	for _, seg := range path {
		if seg.IsIndex {
			list, ok := current.([]any)
			if !ok || seg.Index >= len(list) {
				return nil, false
			}
			current = list[seg.Index]
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg.Name]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// matchClause sigue la semántica SQL: un campo nulo o ausente sólo cumple Equal(nil).
func matchClause(value any, found bool, c filter.Clause) bool {
	isNull := !found || value == nil

	if c.Kind == filter.KindEqual {
		want := filter.NormalizeValue(c.Value)
		if want == nil {
			return isNull != c.Not
		}
		if isNull {
			return false
		}
		return equal(value, want) != c.Not
	}

	if isNull {
		return false
	}

	var result bool
	switch c.Kind {
	case filter.KindIn:
		for _, v := range c.Values {
			if equal(value, filter.NormalizeValue(v)) {
				result = true
				break
			}
		}
	case filter.KindLessThan:
		cmp, ok := compare(value, filter.NormalizeValue(c.Value))
		result = ok && cmp < 0
	case filter.KindLessThanOrEqual:
		cmp, ok := compare(value, filter.NormalizeValue(c.Value))
		result = ok && cmp <= 0
	case filter.KindMoreThan:
		cmp, ok := compare(value, filter.NormalizeValue(c.Value))
		result = ok && cmp > 0
	case filter.KindMoreThanOrEqual:
		cmp, ok := compare(value, filter.NormalizeValue(c.Value))
		result = ok && cmp >= 0
	case filter.KindBetween:
		low, okLow := compare(value, filter.NormalizeValue(c.Values[0]))
		high, okHigh := compare(value, filter.NormalizeValue(c.Values[1]))
		result = okLow && okHigh && low >= 0 && high <= 0
	case filter.KindLike, filter.KindILike:
		s, ok := value.(string)
		pattern, _ := c.Value.(string)
		result = ok && filter.MatchLike(s, pattern, c.Kind == filter.KindILike)
	}
	return result != c.Not
}

func equal(a, b any) bool {
	if cmp, ok := compare(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare sólo ordena valores del mismo tipo JSON.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// Apply filtra, ordena y pagina una lista de documentos.
func Apply(docs []map[string]any, q filter.Query) []map[string]any {
	var out []map[string]any
	for _, d := range docs {
		if Matches(d, q.Where) {
			out = append(out, d)
		}
	}

	if len(q.Order) > 0 {
		keys := make([][]filter.Segment, len(q.Order))
		for i, term := range q.Order {
			keys[i], _ = filter.ParsePath(term.Field)
		}
		sort.SliceStable(out, func(i, j int) bool {
			for k, term := range q.Order {
				a, _ := lookup(out[i], keys[k])
				b, _ := lookup(out[j], keys[k])
				cmp := compareForSort(a, b)
				if cmp == 0 {
					continue
				}
				if term.Direction == filter.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if q.Skip > 0 {
		if q.Skip >= len(out) {
			return []map[string]any{}
		}
		out = out[q.Skip:]
	}
	if q.Take > 0 && q.Take < len(out) {
		out = out[:q.Take]
	}
	return out
}

// compareForSort coloca los nulos primero, como SQLite.
func compareForSort(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if cmp, ok := compare(a, b); ok {
		return cmp
	}
	return 0
}
