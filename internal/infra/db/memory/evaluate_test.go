package memory

import (
	"testing"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, f filter.Filter) filter.Query {
	t.Helper()
	q, err := filter.Compile(f)
	require.NoError(t, err)
	return q
}

func TestMatches_NilWhereMatchesEverything(t *testing.T) {
	assert.True(t, Matches(map[string]any{}, nil))
	assert.False(t, Matches(map[string]any{}, []filter.Predicate{}))
}

func TestMatches_TypeMismatchNeverMatches(t *testing.T) {
	doc := map[string]any{"age": "30"}
	q := compile(t, filter.Filter{Filters: filter.One(filter.SearchQuery{By: "age", Operator: "gt", Value: 10})})
	assert.False(t, Matches(doc, q.Where))
}

func TestMatches_IndexOutOfRangeIsMissing(t *testing.T) {
	doc := map[string]any{"tags": []any{"go"}}
	q := compile(t, filter.Filter{Filters: filter.One(filter.SearchQuery{By: "tags[3]", Operator: "eq", Value: nil})})
	assert.True(t, Matches(doc, q.Where))
}

func TestMatches_NumbersCompareAcrossGoTypes(t *testing.T) {
	doc := map[string]any{"n": float64(7)}
	q := compile(t, filter.Filter{Filters: filter.One(filter.SearchQuery{By: "n", Operator: "in", Value: []int64{7}})})
	assert.True(t, Matches(doc, q.Where))
}

func TestApply_SkipAndTake(t *testing.T) {
	docs := []map[string]any{{"n": 1.0}, {"n": 2.0}, {"n": 3.0}}

	out := Apply(docs, filter.Query{Skip: 1, Take: 1})
	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0]["n"])

	assert.Len(t, Apply(docs, filter.Query{Skip: 3}), 0)
	assert.Len(t, Apply(docs, filter.Query{Take: 10}), 3)
}

func TestApply_StableOrder(t *testing.T) {
	docs := []map[string]any{
		{"k": "b", "i": 1.0},
		{"k": "a", "i": 2.0},
		{"k": "b", "i": 3.0},
	}
	out := Apply(docs, filter.Query{Order: []filter.OrderTerm{{Field: "k", Direction: filter.Asc}}})
	require.Len(t, out, 3)
	assert.Equal(t, []any{2.0, 1.0, 3.0}, []any{out[0]["i"], out[1]["i"], out[2]["i"]})
}
