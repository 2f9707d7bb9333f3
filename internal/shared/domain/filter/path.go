package filter

import (
	"strconv"
	"strings"
)

// maxArrayIndex acota los huecos que puede crear un índice.
const maxArrayIndex = 1024

// Segment es un tramo de una ruta de campo: un nombre ("address") o un
// índice de array ("[0]").
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// ParsePath tokeniza "a.b[0][1].c" en [a b [0] [1] c].
// Separa por '.' y en cada tramo detecta los sufijos "[dígitos]".
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, invalid(path, "field path must not be empty")
	}

	var segments []Segment
	for _, part := range strings.Split(path, ".") {
		open := strings.IndexByte(part, '[')
		name := part
		if open >= 0 {
			name = part[:open]
		}
		if name == "" {
			return nil, invalid(path, "field path has an empty segment")
		}
		if strings.ContainsRune(name, ']') {
			return nil, invalid(path, "unbalanced brackets in field path")
		}
		segments = append(segments, Segment{Name: name})

		rest := ""
		if open >= 0 {
			rest = part[open:]
		}
		for rest != "" {
			if rest[0] != '[' {
				return nil, invalid(path, "unexpected characters after index")
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, invalid(path, "unbalanced brackets in field path")
			}
			digits := rest[1:end]
			idx, err := parseIndex(digits)
			if err != nil {
				return nil, invalidf(path, "invalid array index %q", digits)
			}
			segments = append(segments, Segment{Index: idx, IsIndex: true})
			rest = rest[end+1:]
		}
	}
	return segments, nil
}

func parseIndex(digits string) (int, error) {
	if digits == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	idx, err := strconv.Atoi(digits)
	if err != nil || idx > maxArrayIndex {
		return 0, strconv.ErrRange
	}
	return idx, nil
}

// JoinPath es la inversa de ParsePath.
func JoinPath(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		if !s.IsIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// ---------------- Unflatten ----------------

// entry es un par ruta plana -> cláusula, en orden de llegada.
type entry struct {
	path   string
	clause Clause
}

// unflatten expande las rutas planas en mapas/arrays anidados.
// Las cláusulas son terminales: nunca se recorren ni se copian sus valores.
// Si dos rutas no pueden convivir ("a" y "a.b", "a[0]" y "a.b") falla, así que
// el resultado no depende del orden de las entradas.
func unflatten(entries []entry) (Predicate, error) {
	root := Predicate{}
	for _, e := range entries {
		segments, err := ParsePath(e.path)
		if err != nil {
			return nil, err
		}
		child, err := insert(root[segments[0].Name], segments[1:], e.clause, e.path)
		if err != nil {
			return nil, err
		}
		root[segments[0].Name] = child
	}
	return root, nil
}

func insert(node any, rest []Segment, leaf Clause, path string) (any, error) {
	if len(rest) == 0 {
		if node != nil {
			return nil, invalid(path, "field path conflicts with another filter")
		}
		return leaf, nil
	}

	seg := rest[0]
	if seg.IsIndex {
		var list []any
		switch n := node.(type) {
		case nil:
		case []any:
			list = n
		default:
			return nil, invalid(path, "field path conflicts with another filter")
		}
		for len(list) <= seg.Index {
			list = append(list, nil)
		}
		child, err := insert(list[seg.Index], rest[1:], leaf, path)
		if err != nil {
			return nil, err
		}
		list[seg.Index] = child
		return list, nil
	}

	var obj Predicate
	switch n := node.(type) {
	case nil:
		obj = Predicate{}
	case Predicate:
		obj = n
	default:
		return nil, invalid(path, "field path conflicts with another filter")
	}
	child, err := insert(obj[seg.Name], rest[1:], leaf, path)
	if err != nil {
		return nil, err
	}
	obj[seg.Name] = child
	return obj, nil
}
