package sqldoc_test

import (
	"testing"

	"github.com/davicafu/hexacrud/internal/infra/db/postgres"
	"github.com/davicafu/hexacrud/internal/infra/db/sqldoc"
	"github.com/davicafu/hexacrud/internal/infra/db/sqlite"
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

func one(by, op string, v any) filter.Filter {
	return filter.Filter{Filters: filter.One(filter.SearchQuery{By: by, Operator: op, Value: v})}
}

func TestBuild_SQLite(t *testing.T) {
	st, err := sqldoc.Build(sqlite.Dialect{}, "data", compile(t, one("address.tags[0]", "eq", "go")))
	require.NoError(t, err)

	assert.Equal(t, `(json_extract(data, '$."address"."tags"[0]') = ?)`, st.Where)
	assert.Equal(t, []any{"go"}, st.Args)
	assert.Equal(t, "created_at ASC, id ASC", st.OrderBy)
	assert.Empty(t, st.Limit)
	assert.Equal(t,
		`SELECT data FROM people WHERE (json_extract(data, '$."address"."tags"[0]') = ?) ORDER BY created_at ASC, id ASC`,
		st.SQL("people"))
}

func TestBuild_Postgres(t *testing.T) {
	st, err := sqldoc.Build(postgres.Dialect{}, "data", compile(t, one("age", "between", []int{1, 5})))
	require.NoError(t, err)

	assert.Equal(t, `(NULLIF(data #> '{age}', 'null'::jsonb) BETWEEN $1::jsonb AND $2::jsonb)`, st.Where)
	require.Len(t, st.Args, 2)
	assert.Equal(t, []byte("1"), st.Args[0])
	assert.Equal(t, []byte("5"), st.Args[1])
}

func TestBuild_NullAndNegations(t *testing.T) {
	d := sqlite.Dialect{}
	cases := []struct {
		name  string
		f     filter.Filter
		where string
	}{
		{"eq null", one("a", "eq", nil), `(json_extract(data, '$."a"') IS NULL)`},
		{"ne null", one("a", "ne", nil), `(json_extract(data, '$."a"') IS NOT NULL)`},
		{"ne value", one("a", "ne", 1), `((json_extract(data, '$."a"') IS NOT NULL AND json_extract(data, '$."a"') <> ?))`},
		{"in empty", one("a", "in", []any{}), `(1=0)`},
		{"notIn empty", one("a", "notIn", []any{}), `(json_extract(data, '$."a"') IS NOT NULL)`},
		{"in", one("a", "in", []any{1, 2}), `(json_extract(data, '$."a"') IN (?, ?))`},
		{"like", one("a", "like", "x%"), `(json_extract(data, '$."a"') GLOB ?)`},
		{"iLike", one("a", "iLike", "x%"), `(json_extract(data, '$."a"') LIKE ?)`},
		{"notLike", one("a", "notLike", "x%"), `((json_extract(data, '$."a"') IS NOT NULL AND NOT (json_extract(data, '$."a"') GLOB ?)))`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, err := sqldoc.Build(d, "data", compile(t, tc.f))
			require.NoError(t, err)
			assert.Equal(t, tc.where, st.Where)
		})
	}
}

func TestBuild_OrBranchesAndPagination(t *testing.T) {
	f := filter.Filter{
		Logic: "OR",
		Filters: filter.Many(
			filter.SearchQuery{By: "a", Operator: "eq", Value: 1},
			filter.SearchQuery{By: "b", Operator: "gt", Value: 2},
		),
		Order:      []filter.Order{{By: "b", Operator: "desc"}},
		Pagination: &filter.Pagination{Page: 3, PageSize: 10},
	}
	st, err := sqldoc.Build(postgres.Dialect{}, "data", compile(t, f))
	require.NoError(t, err)

	assert.Equal(t, `(NULLIF(data #> '{a}', 'null'::jsonb) = $1::jsonb) OR (NULLIF(data #> '{b}', 'null'::jsonb) > $2::jsonb)`, st.Where)
	assert.Equal(t, `NULLIF(data #> '{b}', 'null'::jsonb) DESC NULLS LAST, created_at ASC, id ASC`, st.OrderBy)
	assert.Equal(t, "LIMIT $3 OFFSET $4", st.Limit)
	assert.Equal(t, 10, st.Args[2])
	assert.Equal(t, 20, st.Args[3])
}

func TestBuild_SkipWithoutTake(t *testing.T) {
	q := filter.Query{Skip: 5}

	st, err := sqldoc.Build(sqlite.Dialect{}, "data", q)
	require.NoError(t, err)
	assert.Equal(t, "LIMIT -1 OFFSET ?", st.Limit)

	st, err = sqldoc.Build(postgres.Dialect{}, "data", q)
	require.NoError(t, err)
	assert.Equal(t, "OFFSET $1", st.Limit)
}

func TestBuild_EmptyWhereMatchesNothing(t *testing.T) {
	st, err := sqldoc.Build(sqlite.Dialect{}, "data", filter.Query{Where: []filter.Predicate{}})
	require.NoError(t, err)
	assert.Equal(t, "1=0", st.Where)
}

func TestBuild_RejectsUnsafeNames(t *testing.T) {
	_, err := sqldoc.Build(postgres.Dialect{}, "data", compile(t, one("a'b", "eq", 1)))
	assert.Error(t, err)

	_, err = sqldoc.Build(postgres.Dialect{}, "data", filter.Query{Order: []filter.OrderTerm{{Field: "x}", Direction: filter.Asc}}})
	assert.Error(t, err)
}

func TestSQLiteLikeArg(t *testing.T) {
	d := sqlite.Dialect{}
	assert.Equal(t, "a*b?[*][?][[]", d.LikeArg("a%b_*?[", false))
	assert.Equal(t, "a%b_", d.LikeArg("a%b_", true))
}
