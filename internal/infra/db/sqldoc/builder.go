package sqldoc

import (
	"fmt"
	"strings"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	sharedUtils "github.com/davicafu/hexacrud/internal/shared/infra/utils"
)

// Statement es la parte variable de un SELECT generado a partir de un Query.
type Statement struct {
	Where   string
	OrderBy string
	Limit   string
	Args    []any
}

// SQL compone la sentencia completa sobre table.
func (s Statement) SQL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT data FROM %s", table)
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(s.OrderBy)
	if s.Limit != "" {
		b.WriteString(" ")
		b.WriteString(s.Limit)
	}
	return b.String()
}

type builder struct {
	d      Dialect
	column string
	args   []any
	err    error
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) bindValue(v any) string {
	arg, err := b.d.Arg(v)
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.d.Param(b.bind(arg))
}

// Build traduce q a SQL para el dialecto d. column es la columna JSON.
// argOffset permite anteponer argumentos propios al resultado.
func Build(d Dialect, column string, q filter.Query, argOffset ...any) (Statement, error) {
	b := &builder{d: d, column: column, args: append([]any(nil), argOffset...)}

	var st Statement
	if q.Where != nil {
		where, err := b.where(q.Where)
		if err != nil {
			return Statement{}, err
		}
		st.Where = where
	}

	order, err := b.order(q.Order)
	if err != nil {
		return Statement{}, err
	}
	st.OrderBy = order
	st.Limit = d.Paginate(q.Take, q.Skip, b.bind)

	if b.err != nil {
		return Statement{}, b.err
	}
	st.Args = b.args
	return st, nil
}

func (b *builder) where(branches []filter.Predicate) (string, error) {
	if len(branches) == 0 {
		return "1=0", nil
	}
	parts := make([]string, 0, len(branches))
	for _, branch := range branches {
		conds, err := b.branch(branch)
		if err != nil {
			return "", err
		}
		if len(conds) == 0 {
			// Una rama vacía no restringe nada.
			return "", nil
		}
		parts = append(parts, "("+strings.Join(conds, " AND ")+")")
	}
	return strings.Join(parts, " OR "), nil
}

func (b *builder) branch(p filter.Predicate) ([]string, error) {
	var conds []string
	err := p.Walk(func(path []filter.Segment, c filter.Clause) error {
		if err := CheckPath(path); err != nil {
			return err
		}
		cond, err := b.clause(path, c)
		if err != nil {
			return err
		}
		conds = append(conds, cond)
		return nil
	})
	return conds, err
}

func (b *builder) clause(path []filter.Segment, c filter.Clause) (string, error) {
	value := b.d.ValueExpr(b.column, path)

	switch c.Kind {
	case filter.KindEqual:
		if c.Value == nil {
			if c.Not {
				return value + " IS NOT NULL", nil
			}
			return value + " IS NULL", nil
		}
		if c.Not {
			return fmt.Sprintf("(%s IS NOT NULL AND %s <> %s)", value, value, b.bindValue(c.Value)), nil
		}
		return fmt.Sprintf("%s = %s", value, b.bindValue(c.Value)), nil

	case filter.KindIn:
		if len(c.Values) == 0 {
			if c.Not {
				return value + " IS NOT NULL", nil
			}
			return "1=0", nil
		}
		ph := make([]string, len(c.Values))
		for i, v := range c.Values {
			ph[i] = b.bindValue(v)
		}
		list := strings.Join(ph, ", ")
		if c.Not {
			return fmt.Sprintf("(%s IS NOT NULL AND %s NOT IN (%s))", value, value, list), nil
		}
		return fmt.Sprintf("%s IN (%s)", value, list), nil

	case filter.KindLessThan:
		return fmt.Sprintf("%s < %s", value, b.bindValue(c.Value)), nil
	case filter.KindLessThanOrEqual:
		return fmt.Sprintf("%s <= %s", value, b.bindValue(c.Value)), nil
	case filter.KindMoreThan:
		return fmt.Sprintf("%s > %s", value, b.bindValue(c.Value)), nil
	case filter.KindMoreThanOrEqual:
		return fmt.Sprintf("%s >= %s", value, b.bindValue(c.Value)), nil

	case filter.KindBetween:
		if len(c.Values) != 2 {
			return "", fmt.Errorf("between on %s needs two bounds", filter.JoinPath(path))
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", value, b.bindValue(c.Values[0]), b.bindValue(c.Values[1])), nil

	case filter.KindLike, filter.KindILike:
		s, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("pattern on %s must be a string", filter.JoinPath(path))
		}
		ci := c.Kind == filter.KindILike
		text := b.d.TextExpr(b.column, path)
		cond := b.d.Like(text, b.bind(b.d.LikeArg(s, ci)), ci)
		if c.Not {
			return fmt.Sprintf("(%s IS NOT NULL AND NOT (%s))", text, cond), nil
		}
		return cond, nil
	}
	return "", fmt.Errorf("unsupported clause %s", c.Kind)
}

func (b *builder) order(terms []filter.OrderTerm) (string, error) {
	parts := make([]string, 0, len(terms)+2)
	for _, t := range terms {
		path, err := filter.ParsePath(t.Field)
		if err != nil {
			return "", err
		}
		if err := CheckPath(path); err != nil {
			return "", err
		}
		// Los nulos cuentan como el menor valor en todos los motores.
		dir := sharedUtils.Ternary(t.Direction == filter.Desc, "DESC NULLS LAST", "ASC NULLS FIRST")
		parts = append(parts, b.d.ValueExpr(b.column, path)+" "+dir)
	}
	// Orden estable: inserción y, a igualdad, id.
	parts = append(parts, "created_at ASC", "id ASC")
	return strings.Join(parts, ", "), nil
}
