package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// ---------------- Petición de filtrado ----------------

// SearchQuery describe una comparación hoja: campo, operador y valor.
// By admite rutas con puntos y corchetes ("address.city", "tags[0]").
type SearchQuery struct {
	By       string `json:"by"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Order es una clave de ordenación. El orden de la lista define la precedencia.
type Order struct {
	By       string `json:"by"`
	Operator string `json:"operator"`
}

// Pagination usa páginas base 1.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Filter es la raíz de la petición. Todos los campos son opcionales.
type Filter struct {
	Logic      string      `json:"logic,omitempty"`
	Filters    Filters     `json:"filters,omitempty"`
	Order      []Order     `json:"order,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ---------------- Variante SearchQuery | []SearchQuery ----------------

type filtersKind uint8

const (
	filtersNone filtersKind = iota
	filtersOne
	filtersMany
)

// Filters es la variante etiquetada "una consulta o una lista de consultas".
// La forma se decide al decodificar el payload.
type Filters struct {
	kind    filtersKind
	queries []SearchQuery
}

// One crea la variante de consulta única.
func One(q SearchQuery) Filters {
	return Filters{kind: filtersOne, queries: []SearchQuery{q}}
}

// Many crea la variante de lista (puede estar vacía).
func Many(qs ...SearchQuery) Filters {
	cp := make([]SearchQuery, len(qs))
	copy(cp, qs)
	return Filters{kind: filtersMany, queries: cp}
}

// IsZero indica que no se recibió ningún filtro.
func (f Filters) IsZero() bool { return f.kind == filtersNone }

// IsSingle indica que el payload era un objeto y no un array.
func (f Filters) IsSingle() bool { return f.kind == filtersOne }

// Queries devuelve una copia de las consultas en su orden original.
func (f Filters) Queries() []SearchQuery {
	cp := make([]SearchQuery, len(f.queries))
	copy(cp, f.queries)
	return cp
}

// UnmarshalJSON decide la variante según la forma del JSON.
func (f *Filters) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return invalid("filters", err.Error())
	}
	decoded, err := decodeFilters(raw)
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

// MarshalJSON conserva la forma original (objeto o array).
func (f Filters) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case filtersOne:
		return json.Marshal(f.queries[0])
	case filtersMany:
		return json.Marshal(f.queries)
	default:
		return []byte("null"), nil
	}
}

// Decode construye un Filter a partir de un payload genérico (por ejemplo el
// resultado de json.Unmarshal en un map[string]any).
func Decode(raw map[string]any) (Filter, error) {
	var f Filter
	for key, v := range raw {
		switch key {
		case "logic":
			s, ok := v.(string)
			if !ok && v != nil {
				return Filter{}, invalid("logic", "must be a string")
			}
			f.Logic = s
		case "filters":
			fs, err := decodeFilters(v)
			if err != nil {
				return Filter{}, err
			}
			f.Filters = fs
		case "order":
			if v == nil {
				continue
			}
			if err := decodeStrict(v, &f.Order); err != nil {
				return Filter{}, invalid("order", err.Error())
			}
		case "pagination":
			if v == nil {
				continue
			}
			var p Pagination
			if err := decodeStrict(v, &p); err != nil {
				return Filter{}, invalid("pagination", err.Error())
			}
			f.Pagination = &p
		default:
			return Filter{}, invalid(key, "unknown filter attribute")
		}
	}
	return f, nil
}

func decodeFilters(raw any) (Filters, error) {
	switch t := raw.(type) {
	case nil:
		return Filters{}, nil
	case map[string]any:
		q, err := decodeSearchQuery(t)
		if err != nil {
			return Filters{}, err
		}
		return One(q), nil
	case []any:
		qs := make([]SearchQuery, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return Filters{}, invalid("filters", "every element must be an object")
			}
			q, err := decodeSearchQuery(m)
			if err != nil {
				return Filters{}, err
			}
			qs = append(qs, q)
		}
		return Filters{kind: filtersMany, queries: qs}, nil
	default:
		return Filters{}, invalid("filters", "must be an object or an array of objects")
	}
}

func decodeSearchQuery(m map[string]any) (SearchQuery, error) {
	var q SearchQuery
	if err := decodeStrict(m, &q); err != nil {
		field := "filters"
		if by, ok := m["by"].(string); ok && by != "" {
			field = by
		}
		return SearchQuery{}, invalid(field, err.Error())
	}
	return q, nil
}

// decodeStrict rechaza claves desconocidas y tipos incompatibles.
func decodeStrict(input, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: false,
		DecodeHook:       integralFloats,
		Result:           target,
		// Los nombres de atributo distinguen mayúsculas, igual que las rutas.
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// integralFloats impide que mapstructure trunque 1.5 a 1: los números JSON
// llegan como float64 y solo se aceptan en un entero si no tienen decimales.
func integralFloats(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.Float32 && from != reflect.Float64 {
		return data, nil
	}
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := reflect.ValueOf(data).Float()
		if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
			return nil, fmt.Errorf("expected an integer, got %v", f)
		}
	}
	return data, nil
}
