package filter

import (
	"regexp"
	"strings"
)

// LikeToRegexp convierte un patrón LIKE ('%' cualquier secuencia, '_' un carácter)
// en una expresión regular anclada. Para backends sin LIKE nativo.
func LikeToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	literal := strings.Builder{}
	flush := func() {
		if literal.Len() > 0 {
			b.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}
	for _, r := range pattern {
		switch r {
		case '%':
			flush()
			b.WriteString("(?s:.*)")
		case '_':
			flush()
			b.WriteString("(?s:.)")
		default:
			literal.WriteRune(r)
		}
	}
	flush()
	b.WriteString("$")
	return b.String()
}

// MatchLike evalúa un patrón LIKE en memoria.
func MatchLike(value, pattern string, caseInsensitive bool) bool {
	expr := LikeToRegexp(pattern)
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}
