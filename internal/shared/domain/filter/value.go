package filter

import "encoding/json"

// NormalizeValue lleva un valor Go (int, time.Time, uuid.UUID...) a su forma
// JSON genérica (float64, string, bool, nil, []any, map[string]any), que es
// como los backends documentales guardan los campos.
func NormalizeValue(v any) any {
	switch v.(type) {
	case nil, string, float64, bool:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
