package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexacrud/internal/infra/db/memory"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	sharedDomainEvents "github.com/davicafu/hexacrud/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexacrud/internal/shared/infra/platform/bus"
	"github.com/davicafu/hexacrud/tests/mocks"
)

type widget struct {
	sharedDomain.Base
	Name string `json:"name"`
}

func registry() map[string]sharedDomainEvents.EventMetadata {
	return sharedDomainEvents.NewCrudRegistry("widget", "widgets", reflect.TypeOf(widget{}))
}

func TestOutboxWorker_ProcessBatch_Success(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	eventID := uuid.New()
	aggregateID := uuid.New()
	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	testEvent := sharedDomain.OutboxEvent{
		ID:            eventID,
		AggregateType: "widget",
		AggregateID:   aggregateID.String(),
		EventType:     "widget.created",
		Payload:       map[string]interface{}{"id": aggregateID.String(), "name": "rueda", "extra": true},
		CreatedAt:     createdAt,
	}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.IntegrationEvent")).Return(nil).Once()
	repo.On("MarkOutboxProcessed", mock.Anything, eventID).Return(nil).Once()

	worker := NewOutboxWorker(repo, publisher, registry(), time.Second, 10, zap.NewNop())

	// ACT
	processed := worker.ProcessBatch(context.Background())

	// ASSERT
	assert.Equal(t, 1, processed)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)

	published := publisher.Calls[0].Arguments.Get(1).(sharedDomainEvents.IntegrationEvent)
	assert.Equal(t, eventID.String(), published.ID)
	assert.Equal(t, "widget.created", published.Type)
	assert.Equal(t, "widget", published.AggregateType)
	assert.Equal(t, aggregateID.String(), published.PartitionKey())
	assert.Equal(t, "widgets", published.EventTopic())
	assert.Equal(t, createdAt, published.Timestamp)

	// El payload pasa por el tipo registrado: los campos desconocidos se descartan.
	var data map[string]any
	require.NoError(t, json.Unmarshal(published.Data, &data))
	assert.Equal(t, "rueda", data["name"])
	assert.NotContains(t, data, "extra")
}

func TestOutboxWorker_ProcessBatch_PublisherFails(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	testEvent := sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "widget.deleted", Payload: map[string]interface{}{"id": "x"}}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	// Simulamos el fallo de Publish.
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka is down")).Once()

	worker := NewOutboxWorker(repo, publisher, registry(), time.Second, 10, zap.NewNop())

	assert.Equal(t, 0, worker.ProcessBatch(context.Background()))

	repo.AssertCalled(t, "FetchPendingOutbox", mock.Anything, 10)
	publisher.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_UnknownEventType(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	testEvent := sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "unregistered.event", Payload: map[string]interface{}{}}
	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()

	worker := NewOutboxWorker(repo, publisher, registry(), time.Second, 10, zap.NewNop())
	worker.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_FetchFails(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)
	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent(nil), errors.New("db down")).Once()

	worker := NewOutboxWorker(repo, publisher, registry(), time.Second, 10, zap.NewNop())

	assert.Equal(t, 0, worker.ProcessBatch(context.Background()))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

// Con la outbox en memoria los eventos marcados no se vuelven a leer.
func TestOutboxWorker_WithMemoryOutbox(t *testing.T) {
	outbox := memory.NewOutbox()
	repo := memory.NewDocumentRepo[widget](outbox)
	ctx := context.Background()

	w := &widget{Name: "rueda"}
	w.ID = uuid.New()
	require.NoError(t, repo.Create(ctx, w, sharedDomain.NewOutboxEvent("widget", sharedDomainEvents.ActionCreated, w.ID, w, time.Now())))
	require.NoError(t, repo.DeleteByID(ctx, w.ID, sharedDomain.NewOutboxEvent("widget", sharedDomainEvents.ActionDeleted, w.ID, sharedDomainEvents.DeletedPayload{ID: w.ID.String()}, time.Now())))

	publisher := new(mocks.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	worker := NewOutboxWorker(outbox, publisher, registry(), time.Second, 10, zap.NewNop())

	assert.Equal(t, 2, worker.ProcessBatch(ctx))
	assert.Equal(t, 0, worker.ProcessBatch(ctx))

	first := publisher.Calls[0].Arguments.Get(1).(sharedDomainEvents.IntegrationEvent)
	second := publisher.Calls[1].Arguments.Get(1).(sharedDomainEvents.IntegrationEvent)
	assert.Equal(t, "widget.created", first.Type)
	assert.Equal(t, "widget.deleted", second.Type)
}

func TestOutboxWorker_StartStopsOnCancel(t *testing.T) {
	polled := make(chan struct{})
	var once sync.Once
	repo := new(mocks.MockOutboxRepository)
	repo.On("FetchPendingOutbox", mock.Anything, 10).
		Run(func(mock.Arguments) { once.Do(func() { close(polled) }) }).
		Return([]sharedDomain.OutboxEvent{}, nil)
	worker := NewOutboxWorker(repo, new(mocks.MockPublisher), registry(), 5*time.Millisecond, 10, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("el worker no hizo polling")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el worker no se detuvo")
	}
}

// Verificación estática de que los mocks cumplen las interfaces.
var _ sharedDomain.OutboxRepository = (*mocks.MockOutboxRepository)(nil)
var _ sharedBus.EventBus = (*mocks.MockPublisher)(nil)
