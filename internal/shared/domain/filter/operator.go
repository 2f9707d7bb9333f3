package filter

import (
	"github.com/goccy/go-reflect"
)

// ---------------- Operadores ----------------

// Operator es el conjunto cerrado de operadores de comparación aceptados.
type Operator uint8

const (
	OpEq Operator = iota + 1
	OpNe
	OpIn
	OpNotIn
	OpLt
	OpLte
	OpGt
	OpGte
	OpBetween
	OpLike
	OpNotLike
	OpILike
	OpNotILike
)

// Tabla única nombre <-> operador. Añadir un operador es tocar aquí y en resolve.
var operatorNames = map[Operator]string{
	OpEq:       "eq",
	OpNe:       "ne",
	OpIn:       "in",
	OpNotIn:    "notIn",
	OpLt:       "lt",
	OpLte:      "lte",
	OpGt:       "gt",
	OpGte:      "gte",
	OpBetween:  "between",
	OpLike:     "like",
	OpNotLike:  "notLike",
	OpILike:    "iLike",
	OpNotILike: "notILike",
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[name] = op
	}
	return m
}()

// ParseOperator distingue mayúsculas ("notIn", no "notin").
func ParseOperator(name string) (Operator, bool) {
	op, ok := operatorsByName[name]
	return op, ok
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unknown"
}

// ---------------- Cláusulas de backend ----------------

// ClauseKind es el operador que debe aplicar el backend.
type ClauseKind uint8

const (
	KindEqual ClauseKind = iota + 1
	KindIn
	KindLessThan
	KindLessThanOrEqual
	KindMoreThan
	KindMoreThanOrEqual
	KindBetween
	KindLike
	KindILike
)

func (k ClauseKind) String() string {
	switch k {
	case KindEqual:
		return "Equal"
	case KindIn:
		return "In"
	case KindLessThan:
		return "LessThan"
	case KindLessThanOrEqual:
		return "LessThanOrEqual"
	case KindMoreThan:
		return "MoreThan"
	case KindMoreThanOrEqual:
		return "MoreThanOrEqual"
	case KindBetween:
		return "Between"
	case KindLike:
		return "Like"
	case KindILike:
		return "ILike"
	default:
		return "Unknown"
	}
}

// Clause es la hoja del árbol de predicados.
// Value se usa en comparaciones escalares; Values en In y Between ([min, max]).
type Clause struct {
	Kind   ClauseKind
	Not    bool
	Value  any
	Values []any
}

func (c Clause) String() string {
	var s string
	switch c.Kind {
	case KindIn:
		s = c.Kind.String() + "(" + formatValues(c.Values) + ")"
	case KindBetween:
		s = c.Kind.String() + "(" + formatValues(c.Values) + ")"
	default:
		s = c.Kind.String() + "(" + formatValue(c.Value) + ")"
	}
	if c.Not {
		return "Not(" + s + ")"
	}
	return s
}

// resolve traduce (operador, valor) a una cláusula. field sólo se usa en errores.
func resolve(field, name string, value any) (Clause, error) {
	op, ok := ParseOperator(name)
	if !ok {
		return Clause{}, invalidf(field, "unknown operator %q", name)
	}

	switch op {
	case OpEq:
		return Clause{Kind: KindEqual, Value: value}, nil
	case OpNe:
		return Clause{Kind: KindEqual, Not: true, Value: value}, nil
	case OpIn, OpNotIn:
		list, ok := asList(value)
		if !ok {
			return Clause{}, invalidf(field, "operator %q requires a list value", name)
		}
		return Clause{Kind: KindIn, Not: op == OpNotIn, Values: list}, nil
	case OpLt:
		return scalar(field, name, KindLessThan, value)
	case OpLte:
		return scalar(field, name, KindLessThanOrEqual, value)
	case OpGt:
		return scalar(field, name, KindMoreThan, value)
	case OpGte:
		return scalar(field, name, KindMoreThanOrEqual, value)
	case OpBetween:
		bounds, ok := asList(value)
		if !ok || len(bounds) != 2 {
			return Clause{}, invalidf(field, "operator %q requires a [min, max] value", name)
		}
		if bounds[0] == nil || bounds[1] == nil {
			return Clause{}, invalidf(field, "operator %q bounds must not be null", name)
		}
		return Clause{Kind: KindBetween, Values: bounds}, nil
	case OpLike, OpNotLike:
		return pattern(field, name, KindLike, op == OpNotLike, value)
	case OpILike, OpNotILike:
		return pattern(field, name, KindILike, op == OpNotILike, value)
	default:
		return Clause{}, invalidf(field, "unknown operator %q", name)
	}
}

func scalar(field, name string, kind ClauseKind, value any) (Clause, error) {
	if value == nil {
		return Clause{}, invalidf(field, "operator %q requires a non-null value", name)
	}
	if _, isList := asList(value); isList {
		return Clause{}, invalidf(field, "operator %q requires a scalar value", name)
	}
	if _, isObject := value.(map[string]any); isObject {
		return Clause{}, invalidf(field, "operator %q requires a scalar value", name)
	}
	return Clause{Kind: kind, Value: value}, nil
}

func pattern(field, name string, kind ClauseKind, not bool, value any) (Clause, error) {
	s, ok := value.(string)
	if !ok {
		return Clause{}, invalidf(field, "operator %q requires a string pattern", name)
	}
	return Clause{Kind: kind, Not: not, Value: s}, nil
}

// asList acepta cualquier slice o array ([]any del JSON, []string de Go...) y
// devuelve siempre una copia, de modo que la cláusula no comparte memoria con la petición.
func asList(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if _, isBytes := value.([]byte); isBytes {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
