package mongodb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claves internas que se añaden al documento y nunca llegan a la entidad.
const (
	idKey      = "_id"
	createdKey = "_createdAt"
)

// matchNothing no coincide con ningún documento.
var matchNothing = bson.M{idKey: bson.M{"$in": bson.A{}}}

// toMongoFilter traduce el Where a un filtro de find: $or de ramas y $and de condiciones.
func toMongoFilter(where []filter.Predicate) (bson.M, error) {
	if where == nil {
		return bson.M{}, nil
	}
	if len(where) == 0 {
		return matchNothing, nil
	}

	branches := make(bson.A, 0, len(where))
	for _, p := range where {
		conds, err := branchConditions(p)
		if err != nil {
			return nil, err
		}
		if len(conds) == 0 {
			return bson.M{}, nil
		}
		branches = append(branches, bson.M{"$and": conds})
	}
	if len(branches) == 1 {
		return branches[0].(bson.M), nil
	}
	return bson.M{"$or": branches}, nil
}

func branchConditions(p filter.Predicate) (bson.A, error) {
	var conds bson.A
	err := p.Walk(func(path []filter.Segment, c filter.Clause) error {
		field, err := fieldPath(path)
		if err != nil {
			return err
		}
		cond, err := clauseCondition(c)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		conds = append(conds, bson.M{field: cond})
		return nil
	})
	return conds, err
}

// fieldPath usa la notación de puntos de Mongo: tags[0] pasa a tags.0.
func fieldPath(path []filter.Segment) (string, error) {
	parts := make([]string, len(path))
	for i, s := range path {
		if s.IsIndex {
			parts[i] = strconv.Itoa(s.Index)
			continue
		}
		if s.Name == "" || strings.HasPrefix(s.Name, "$") {
			return "", fmt.Errorf("unsupported field name %q", s.Name)
		}
		parts[i] = s.Name
	}
	return strings.Join(parts, "."), nil
}

// clauseCondition sigue la semántica SQL: las negaciones excluyen nulos y ausentes.
func clauseCondition(c filter.Clause) (bson.M, error) {
	switch c.Kind {
	case filter.KindEqual:
		v := filter.NormalizeValue(c.Value)
		switch {
		case v == nil && c.Not:
			return bson.M{"$ne": nil}, nil
		case v == nil:
			return bson.M{"$eq": nil}, nil
		case c.Not:
			return bson.M{"$nin": bson.A{v, nil}}, nil
		}
		return bson.M{"$eq": v}, nil

	case filter.KindIn:
		values := make(bson.A, 0, len(c.Values)+1)
		for _, v := range c.Values {
			values = append(values, filter.NormalizeValue(v))
		}
		if c.Not {
			return bson.M{"$nin": append(values, nil)}, nil
		}
		return bson.M{"$in": values}, nil

	case filter.KindLessThan:
		return bson.M{"$lt": filter.NormalizeValue(c.Value)}, nil
	case filter.KindLessThanOrEqual:
		return bson.M{"$lte": filter.NormalizeValue(c.Value)}, nil
	case filter.KindMoreThan:
		return bson.M{"$gt": filter.NormalizeValue(c.Value)}, nil
	case filter.KindMoreThanOrEqual:
		return bson.M{"$gte": filter.NormalizeValue(c.Value)}, nil

	case filter.KindBetween:
		if len(c.Values) != 2 {
			return nil, fmt.Errorf("between needs two bounds")
		}
		return bson.M{
			"$gte": filter.NormalizeValue(c.Values[0]),
			"$lte": filter.NormalizeValue(c.Values[1]),
		}, nil

	case filter.KindLike, filter.KindILike:
		s, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("pattern must be a string")
		}
		re := primitive.Regex{Pattern: filter.LikeToRegexp(s)}
		if c.Kind == filter.KindILike {
			re.Options = "i"
		}
		if c.Not {
			return bson.M{"$not": re, "$ne": nil}, nil
		}
		return bson.M{"$regex": re}, nil
	}
	return nil, fmt.Errorf("unsupported clause %s", c.Kind)
}

// toMongoSort añade el orden de inserción como desempate.
func toMongoSort(terms []filter.OrderTerm) (bson.D, error) {
	sort := make(bson.D, 0, len(terms)+2)
	for _, t := range terms {
		path, err := filter.ParsePath(t.Field)
		if err != nil {
			return nil, err
		}
		field, err := fieldPath(path)
		if err != nil {
			return nil, err
		}
		dir := 1
		if t.Direction == filter.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	return append(sort, bson.E{Key: createdKey, Value: 1}, bson.E{Key: idKey, Value: 1}), nil
}
