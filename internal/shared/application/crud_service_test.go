package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davicafu/hexacrud/internal/infra/db/memory"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/events"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	sharedCache "github.com/davicafu/hexacrud/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexacrud/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type note struct {
	sharedDomain.Base
	Title string         `json:"title"`
	Meta  map[string]int `json:"meta,omitempty"`
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMemoryService(opts Options) (*CrudService[note, *note], *memory.Outbox, *mocks.DummyCache) {
	outbox := memory.NewOutbox()
	cache := mocks.NewDummyCache()
	svc := NewCrudService[note]("note", memory.NewDocumentRepo[note](outbox), cache, zap.NewNop(), opts)
	svc.now = func() time.Time { return fixedNow }
	return svc, outbox, cache
}

func newMockService(opts Options) (*CrudService[note, *note], *mocks.MockRepository[note]) {
	repo := &mocks.MockRepository[note]{}
	svc := NewCrudService[note]("note", sharedDomain.Repository[note](repo), nil, zap.NewNop(), opts)
	return svc, repo
}

func TestCrudService_Create(t *testing.T) {
	svc, outbox, cache := newMemoryService(Options{})
	ctx := context.Background()

	created, err := svc.Create(ctx, &note{Title: "hola"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, fixedNow, created.UpdatedAt)

	evts := outbox.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, "note.created", evts[0].EventType)
	assert.Equal(t, created.ID.String(), evts[0].AggregateID)

	assert.Eventually(t, func() bool {
		return cache.Has(sharedCache.Key("note", created.ID))
	}, time.Second, 10*time.Millisecond)
}

func TestCrudService_FindAll(t *testing.T) {
	svc, _, _ := newMemoryService(Options{})
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, &note{Title: title})
		require.NoError(t, err)
	}

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Title)
	assert.Equal(t, "c", all[2].Title)
}

func TestCrudService_FindOne_CacheHit(t *testing.T) {
	svc, repo := newMockService(Options{})
	cache := mocks.NewDummyCache()
	svc.cache = cache

	n := note{Base: sharedDomain.Base{ID: uuid.New()}, Title: "cached"}
	require.NoError(t, cache.Set(context.Background(), sharedCache.Key("note", n.ID), n, 60))

	got, err := svc.FindOne(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Title)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCrudService_FindOne_NotFoundIsNotRetried(t *testing.T) {
	svc, repo := newMockService(Options{})
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, sharedDomain.ErrNotFound)

	_, err := svc.FindOne(context.Background(), id)
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
	assert.Contains(t, err.Error(), id.String())
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCrudService_FindOne_RetriesTransientErrors(t *testing.T) {
	svc, repo := newMockService(Options{})
	id := uuid.New()
	boom := errors.New("connection reset")
	repo.On("GetByID", mock.Anything, id).Return(nil, boom).Twice()
	repo.On("GetByID", mock.Anything, id).Return(&note{Base: sharedDomain.Base{ID: id}, Title: "ok"}, nil).Once()

	got, err := svc.FindOne(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Title)
	repo.AssertNumberOfCalls(t, "GetByID", 3)
}

func TestCrudService_Update_MergesPatch(t *testing.T) {
	svc, outbox, _ := newMemoryService(Options{})
	ctx := context.Background()

	created, err := svc.Create(ctx, &note{Title: "old", Meta: map[string]int{"a": 1}})
	require.NoError(t, err)
	createdAt := created.CreatedAt

	later := fixedNow.Add(time.Hour)
	svc.now = func() time.Time { return later }

	updated, err := svc.Update(ctx, created.ID, map[string]any{
		"title":     "new",
		"meta":      map[string]any{"b": 2},
		"id":        uuid.New().String(),
		"createdAt": later.Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, createdAt.Equal(updated.CreatedAt))
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, updated.Meta)

	stored, err := svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "new", stored[0].Title)

	evts := outbox.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, "note.updated", evts[1].EventType)
}

func TestCrudService_Update_NullRemovesField(t *testing.T) {
	svc, _, _ := newMemoryService(Options{})
	ctx := context.Background()

	created, err := svc.Create(ctx, &note{Title: "t", Meta: map[string]int{"a": 1}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, map[string]any{"meta": nil})
	require.NoError(t, err)
	assert.Nil(t, updated.Meta)
}

func TestCrudService_Update_Errors(t *testing.T) {
	svc, _, _ := newMemoryService(Options{})
	ctx := context.Background()

	_, err := svc.Update(ctx, uuid.New(), map[string]any{"title": "x"})
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)

	created, err := svc.Create(ctx, &note{Title: "t"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, map[string]any{"title": 5})
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestCrudService_Replace(t *testing.T) {
	svc, _, _ := newMemoryService(Options{})
	ctx := context.Background()

	created, err := svc.Create(ctx, &note{Title: "t"})
	require.NoError(t, err)

	changed := *created
	changed.Title = "changed"
	changed.CreatedAt = time.Time{}
	got, err := svc.Replace(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Title)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	ghost := &note{Base: sharedDomain.Base{ID: uuid.New()}}
	_, err = svc.Replace(ctx, ghost)
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
}

func TestCrudService_Remove(t *testing.T) {
	svc, outbox, cache := newMemoryService(Options{})
	ctx := context.Background()

	created, err := svc.Create(ctx, &note{Title: "t"})
	require.NoError(t, err)
	key := sharedCache.Key("note", created.ID)
	require.Eventually(t, func() bool { return cache.Has(key) }, time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Remove(ctx, created.ID))
	assert.Eventually(t, func() bool { return !cache.Has(key) }, time.Second, 10*time.Millisecond)

	_, err = svc.FindOne(ctx, created.ID)
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)

	assert.ErrorIs(t, svc.Remove(ctx, created.ID), sharedDomain.ErrNotFound)

	evts := outbox.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, "note.deleted", evts[1].EventType)
	assert.Equal(t, events.DeletedPayload{ID: created.ID.String()}, evts[1].Payload)
}

func TestCrudService_Filter(t *testing.T) {
	svc, _, _ := newMemoryService(Options{})
	ctx := context.Background()
	for _, title := range []string{"alpha", "beta", "gamma"} {
		_, err := svc.Create(ctx, &note{Title: title})
		require.NoError(t, err)
	}

	got, err := svc.Filter(ctx, filter.Filter{
		Filters: filter.One(filter.SearchQuery{By: "title", Operator: "like", Value: "%a"}),
		Order:   []filter.Order{{By: "title", Operator: "DESC"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "gamma", got[0].Title)
	assert.Equal(t, "alpha", got[2].Title)
}

func TestCrudService_Filter_InvalidNeverReachesBackend(t *testing.T) {
	svc, repo := newMockService(Options{})

	_, err := svc.Filter(context.Background(), filter.Filter{
		Filters: filter.One(filter.SearchQuery{By: "title", Operator: "contains", Value: "x"}),
	})
	assert.ErrorIs(t, err, filter.ErrInvalidFilter)

	var invalid *filter.InvalidFilterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "title", invalid.Field)
	repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestCrudService_Filter_BackendErrorIsQueryError(t *testing.T) {
	svc, repo := newMockService(Options{})
	cause := errors.New("no such column")
	repo.On("Find", mock.Anything, mock.Anything).Return(nil, cause)

	_, err := svc.Filter(context.Background(), filter.Filter{})
	assert.ErrorIs(t, err, sharedDomain.ErrQuery)
	assert.ErrorIs(t, err, cause)

	var qe *sharedDomain.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, cause, qe.Cause)
}

func TestCrudService_Filter_MaxPageSize(t *testing.T) {
	svc, repo := newMockService(Options{MaxPageSize: 50})
	repo.On("Find", mock.Anything, mock.MatchedBy(func(q filter.Query) bool {
		return q.Take == 50 && q.Skip == 0
	})).Return([]*note{}, nil).Once()

	_, err := svc.Filter(context.Background(), filter.Filter{})
	require.NoError(t, err)

	_, err = svc.Filter(context.Background(), filter.Filter{Pagination: &filter.Pagination{Page: 1, PageSize: 51}})
	assert.ErrorIs(t, err, filter.ErrInvalidFilter)
	repo.AssertNumberOfCalls(t, "Find", 1)
}

// strictCache rechaza operaciones con el contexto cancelado, como Redis.
type strictCache struct {
	*mocks.DummyCache
}

func (c strictCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.DummyCache.Get(ctx, key, dest)
}

func (c strictCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.DummyCache.Set(ctx, key, val, ttlSecs)
}

func (c strictCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.DummyCache.Delete(ctx, key)
}

func newStrictService() (*CrudService[note, *note], *mocks.DummyCache) {
	cache := mocks.NewDummyCache()
	svc := NewCrudService[note]("note", memory.NewDocumentRepo[note](nil), strictCache{cache}, zap.NewNop(), Options{})
	return svc, cache
}

// warm deja la entidad en caché a través de una lectura.
func warm(t *testing.T, svc *CrudService[note, *note], cache *mocks.DummyCache, id uuid.UUID) {
	t.Helper()
	_, err := svc.FindOne(context.Background(), id)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return cache.Has(sharedCache.Key("note", id)) }, time.Second, 5*time.Millisecond)
}

func TestCrudService_Remove_FindOneRightAfterIsNotFound(t *testing.T) {
	svc, cache := newStrictService()

	created, err := svc.Create(context.Background(), &note{Title: "borrar"})
	require.NoError(t, err)
	warm(t, svc, cache, created.ID)

	// Contexto de petición: se cancela en cuanto responde el handler.
	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Remove(reqCtx, created.ID))
	cancel()

	assert.False(t, cache.Has(sharedCache.Key("note", created.ID)))
	_, err = svc.FindOne(context.Background(), created.ID)
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
}

func TestCrudService_Update_FindOneRightAfterSeesNewValue(t *testing.T) {
	svc, cache := newStrictService()

	created, err := svc.Create(context.Background(), &note{Title: "old"})
	require.NoError(t, err)
	warm(t, svc, cache, created.ID)

	reqCtx, cancel := context.WithCancel(context.Background())
	updated, err := svc.Update(reqCtx, created.ID, map[string]any{"title": "new"})
	cancel()
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)

	for i := 0; i < 50; i++ {
		got, err := svc.FindOne(context.Background(), created.ID)
		require.NoError(t, err)
		require.Equal(t, "new", got.Title)
	}
}

func TestCrudService_Create_CachesBeforeReturning(t *testing.T) {
	svc, cache := newStrictService()

	reqCtx, cancel := context.WithCancel(context.Background())
	created, err := svc.Create(reqCtx, &note{Title: "nueva"})
	cancel()
	require.NoError(t, err)

	assert.True(t, cache.Has(sharedCache.Key("note", created.ID)))
}
