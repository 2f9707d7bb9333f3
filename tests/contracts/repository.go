// Package contracts contiene suites reutilizables que cualquier adaptador de
// un puerto debe superar. Cada backend las invoca desde sus propios tests.
package contracts

import (
	"context"
	"testing"
	"time"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/events"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Address y Person son las entidades de prueba de la suite.
type Address struct {
	City string `json:"city"`
	Zip  string `json:"zip,omitempty"`
}

type Person struct {
	sharedDomain.Base
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Active  bool     `json:"active"`
	Tags    []string `json:"tags,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Backend es lo que cada test de adaptador entrega a la suite, recién vaciado.
type Backend struct {
	Repo   sharedDomain.Repository[Person]
	Outbox sharedDomain.OutboxRepository
}

// Setup crea un backend vacío para cada subtest.
type Setup func(t *testing.T) Backend

var epoch = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func people() []*Person {
	mk := func(i int, name string, age int, active bool, tags []string, addr *Address) *Person {
		at := epoch.Add(time.Duration(i) * time.Second)
		return &Person{
			Base:    sharedDomain.Base{ID: uuid.New(), CreatedAt: at, UpdatedAt: at},
			Name:    name,
			Age:     age,
			Active:  active,
			Tags:    tags,
			Address: addr,
		}
	}
	return []*Person{
		mk(0, "Ana", 30, true, []string{"go", "db"}, &Address{City: "Madrid", Zip: "28001"}),
		mk(1, "Bruno", 25, false, []string{"rust"}, &Address{City: "Barcelona"}),
		mk(2, "Carla", 35, true, nil, nil),
		mk(3, "Diego", 40, false, []string{"go"}, &Address{City: "Madrid"}),
	}
}

func event(action string, p *Person) sharedDomain.OutboxEvent {
	return sharedDomain.NewOutboxEvent("person", action, p.ID, p, p.UpdatedAt)
}

func seed(t *testing.T, repo sharedDomain.Repository[Person]) []*Person {
	t.Helper()
	ps := people()
	for _, p := range ps {
		require.NoError(t, repo.Create(context.Background(), p, event(events.ActionCreated, p)))
	}
	return ps
}

func names(ps []*Person) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// RunRepositoryContract ejecuta la suite completa contra el backend.
func RunRepositoryContract(t *testing.T, setup Setup) {
	t.Run("CRUD", func(t *testing.T) { testCRUD(t, setup(t)) })
	t.Run("Outbox", func(t *testing.T) { testOutbox(t, setup(t)) })
	t.Run("Find", func(t *testing.T) { testFind(t, setup(t)) })
}

func testCRUD(t *testing.T, b Backend) {
	ctx := context.Background()
	ps := seed(t, b.Repo)
	ana := ps[0]

	got, err := b.Repo.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, []string{"go", "db"}, got.Tags)
	require.NotNil(t, got.Address)
	assert.Equal(t, "Madrid", got.Address.City)
	assert.True(t, ana.CreatedAt.Equal(got.CreatedAt))

	err = b.Repo.Create(ctx, ana, event(events.ActionCreated, ana))
	assert.ErrorIs(t, err, sharedDomain.ErrAlreadyExists)

	_, err = b.Repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)

	got.Name = "Ana María"
	got.Age = 31
	got.UpdatedAt = got.UpdatedAt.Add(time.Hour)
	require.NoError(t, b.Repo.Update(ctx, got, event(events.ActionUpdated, got)))

	updated, err := b.Repo.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)
	assert.Equal(t, 31, updated.Age)

	// La actualización no cambia la posición de inserción.
	all, err := b.Repo.Find(ctx, filter.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana María", "Bruno", "Carla", "Diego"}, names(all))

	ghost := &Person{Base: sharedDomain.Base{ID: uuid.New(), CreatedAt: epoch, UpdatedAt: epoch}}
	assert.ErrorIs(t, b.Repo.Update(ctx, ghost, event(events.ActionUpdated, ghost)), sharedDomain.ErrNotFound)

	require.NoError(t, b.Repo.DeleteByID(ctx, ana.ID, event(events.ActionDeleted, ana)))
	_, err = b.Repo.GetByID(ctx, ana.ID)
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
	assert.ErrorIs(t, b.Repo.DeleteByID(ctx, ana.ID, event(events.ActionDeleted, ana)), sharedDomain.ErrNotFound)
}

func testOutbox(t *testing.T, b Backend) {
	ctx := context.Background()
	ps := seed(t, b.Repo)
	require.NoError(t, b.Repo.DeleteByID(ctx, ps[1].ID, event(events.ActionDeleted, ps[1])))

	pending, err := b.Outbox.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 5)

	types := map[string]int{}
	for _, evt := range pending {
		types[evt.EventType]++
		assert.Equal(t, "person", evt.AggregateType)
		assert.NotNil(t, evt.Payload)
	}
	assert.Equal(t, 4, types["person.created"])
	assert.Equal(t, 1, types["person.deleted"])

	limited, err := b.Outbox.FetchPendingOutbox(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, b.Outbox.MarkOutboxProcessed(ctx, pending[0].ID))
	rest, err := b.Outbox.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 4)
	for _, evt := range rest {
		assert.NotEqual(t, pending[0].ID, evt.ID)
	}

	assert.Error(t, b.Outbox.MarkOutboxProcessed(ctx, uuid.New()))
}

func q(by, op string, value any) filter.SearchQuery {
	return filter.SearchQuery{By: by, Operator: op, Value: value}
}

func testFind(t *testing.T, b Backend) {
	ctx := context.Background()
	seed(t, b.Repo)

	cases := []struct {
		name   string
		filter filter.Filter
		want   []string
	}{
		{"no filter", filter.Filter{}, []string{"Ana", "Bruno", "Carla", "Diego"}},
		{"empty list", filter.Filter{Filters: filter.Many()}, []string{"Ana", "Bruno", "Carla", "Diego"}},
		{"eq", filter.Filter{Filters: filter.One(q("name", "eq", "Ana"))}, []string{"Ana"}},
		{"eq bool", filter.Filter{Filters: filter.One(q("active", "eq", true))}, []string{"Ana", "Carla"}},
		{"ne excludes missing", filter.Filter{Filters: filter.One(q("address.city", "ne", "Madrid"))}, []string{"Bruno"}},
		{"eq null", filter.Filter{Filters: filter.One(q("address.city", "eq", nil))}, []string{"Carla"}},
		{"ne null", filter.Filter{Filters: filter.One(q("address", "ne", nil))}, []string{"Ana", "Bruno", "Diego"}},
		{"in", filter.Filter{Filters: filter.One(q("age", "in", []int{25, 40}))}, []string{"Bruno", "Diego"}},
		{"in empty", filter.Filter{Filters: filter.One(q("age", "in", []int{}))}, []string{}},
		{"notIn", filter.Filter{Filters: filter.One(q("age", "notIn", []any{25}))}, []string{"Ana", "Carla", "Diego"}},
		{"notIn excludes missing", filter.Filter{Filters: filter.One(q("address.city", "notIn", []string{"Barcelona"}))}, []string{"Ana", "Diego"}},
		{"lt", filter.Filter{Filters: filter.One(q("age", "lt", 30))}, []string{"Bruno"}},
		{"lte", filter.Filter{Filters: filter.One(q("age", "lte", 30))}, []string{"Ana", "Bruno"}},
		{"gt", filter.Filter{Filters: filter.One(q("age", "gt", 35))}, []string{"Diego"}},
		{"gte", filter.Filter{Filters: filter.One(q("age", "gte", 35))}, []string{"Carla", "Diego"}},
		{"between", filter.Filter{Filters: filter.One(q("age", "between", []int{30, 35}))}, []string{"Ana", "Carla"}},
		{"like prefix", filter.Filter{Filters: filter.One(q("name", "like", "A%"))}, []string{"Ana"}},
		{"like is case sensitive", filter.Filter{Filters: filter.One(q("name", "like", "a%"))}, []string{}},
		{"like single char", filter.Filter{Filters: filter.One(q("name", "like", "_n_"))}, []string{"Ana"}},
		{"iLike", filter.Filter{Filters: filter.One(q("name", "iLike", "%A"))}, []string{"Ana", "Carla"}},
		{"notLike", filter.Filter{Filters: filter.One(q("name", "notLike", "%o"))}, []string{"Ana", "Carla"}},
		{"notILike", filter.Filter{Filters: filter.One(q("address.city", "notILike", "MAD%"))}, []string{"Bruno"}},
		{"array index", filter.Filter{Filters: filter.One(q("tags[0]", "eq", "go"))}, []string{"Ana", "Diego"}},
		{"nested and", filter.Filter{Filters: filter.Many(
			q("address.city", "eq", "Madrid"),
			q("age", "gt", 35),
		)}, []string{"Diego"}},
		{"and last write wins", filter.Filter{Filters: filter.Many(
			q("name", "eq", "Ana"),
			q("name", "eq", "Bruno"),
		)}, []string{"Bruno"}},
		{"or", filter.Filter{Logic: "OR", Filters: filter.Many(
			q("name", "eq", "Ana"),
			q("age", "gt", 36),
		)}, []string{"Ana", "Diego"}},
		{"order desc", filter.Filter{Order: []filter.Order{{By: "age", Operator: "DESC"}}}, []string{"Diego", "Carla", "Ana", "Bruno"}},
		{"order nulls first", filter.Filter{Order: []filter.Order{
			{By: "address.city", Operator: "ASC"},
			{By: "name", Operator: "ASC"},
		}}, []string{"Carla", "Bruno", "Ana", "Diego"}},
		{"order nulls last on desc", filter.Filter{Order: []filter.Order{
			{By: "address.city", Operator: "DESC"},
			{By: "name", Operator: "DESC"},
		}}, []string{"Diego", "Ana", "Bruno", "Carla"}},
		{"pagination", filter.Filter{
			Order:      []filter.Order{{By: "name", Operator: "ASC"}},
			Pagination: &filter.Pagination{Page: 2, PageSize: 2},
		}, []string{"Carla", "Diego"}},
		{"pagination past the end", filter.Filter{Pagination: &filter.Pagination{Page: 5, PageSize: 2}}, []string{}},
		{"filter order and page", filter.Filter{
			Filters:    filter.One(q("tags[0]", "eq", "go")),
			Order:      []filter.Order{{By: "age", Operator: "DESC"}},
			Pagination: &filter.Pagination{Page: 1, PageSize: 1},
		}, []string{"Diego"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, err := filter.Compile(tc.filter)
			require.NoError(t, err)

			got, err := b.Repo.Find(ctx, query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(got))
		})
	}
}
