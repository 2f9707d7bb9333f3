package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/davicafu/hexacrud/internal/infra/db/sqlite"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/davicafu/hexacrud/tests/contracts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) contracts.Backend {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.InitSQLite(ctx, db, "people"))

	repo, err := sqlite.NewDocumentRepo[contracts.Person](db, "people")
	require.NoError(t, err)

	return contracts.Backend{Repo: repo, Outbox: sqlite.NewOutboxRepoSQLite(db)}
}

func TestDocumentRepoSQLite_Contract(t *testing.T) {
	contracts.RunRepositoryContract(t, setupSQLite)
}

func TestDocumentRepoSQLite_GlobMetacharactersAreLiteral(t *testing.T) {
	b := setupSQLite(t)
	ctx := context.Background()

	for _, p := range []*contracts.Person{
		{Name: "a*b"},
		{Name: "axxb"},
	} {
		p.ID = uuid.New()
		evt := sharedDomain.NewOutboxEvent("person", "created", p.ID, p, time.Now().UTC())
		require.NoError(t, b.Repo.Create(ctx, p, evt))
	}

	q, err := filter.Compile(filter.Filter{Filters: filter.One(filter.SearchQuery{By: "name", Operator: "like", Value: "a*%"})})
	require.NoError(t, err)

	got, err := b.Repo.Find(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a*b", got[0].Name)
}

func TestDocumentRepoSQLite_RejectsUnsafeFieldNames(t *testing.T) {
	b := setupSQLite(t)

	q, err := filter.Compile(filter.Filter{Filters: filter.One(filter.SearchQuery{By: "na'me", Operator: "eq", Value: "x"})})
	require.NoError(t, err)

	_, err = b.Repo.Find(context.Background(), q)
	assert.Error(t, err)
}

func TestNewDocumentRepo_InvalidTable(t *testing.T) {
	_, err := sqlite.NewDocumentRepo[contracts.Person](nil, "people; DROP TABLE outbox")
	assert.Error(t, err)
}
