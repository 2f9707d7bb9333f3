package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	auditApp "github.com/davicafu/hexacrud/internal/audit/application"
	auditDomain "github.com/davicafu/hexacrud/internal/audit/domain"
	infraCache "github.com/davicafu/hexacrud/internal/infra/cache"
	"github.com/davicafu/hexacrud/internal/infra/db/sqlite"
	infraEvents "github.com/davicafu/hexacrud/internal/infra/events"
	sharedApp "github.com/davicafu/hexacrud/internal/shared/application"
	sharedEvents "github.com/davicafu/hexacrud/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexacrud/internal/shared/infra/platform/bus"
	"github.com/davicafu/hexacrud/internal/shared/infra/relayer"
	taskApp "github.com/davicafu/hexacrud/internal/task/application"
	taskDomain "github.com/davicafu/hexacrud/internal/task/domain"
	userApp "github.com/davicafu/hexacrud/internal/user/application"
	userDomain "github.com/davicafu/hexacrud/internal/user/domain"
	"github.com/davicafu/hexacrud/tests/mocks"
)

type app struct {
	tasks  *taskApp.TaskService
	users  *userApp.UserService
	worker *relayer.Worker
	taskCh <-chan interface{}
	userCh <-chan interface{}
}

// setupApp monta el flujo completo sobre SQLite en memoria y buses en memoria.
func setupApp(t *testing.T) app {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.InitSQLite(ctx, db, "tasks", "users"))

	taskRepo, err := sqlite.NewDocumentRepo[taskDomain.Task](db, "tasks")
	require.NoError(t, err)
	userRepo, err := sqlite.NewDocumentRepo[userDomain.User](db, "users")
	require.NoError(t, err)

	cache := infraCache.NewInMemoryCache(time.Minute, time.Minute)
	t.Cleanup(cache.Stop)

	opts := sharedApp.Options{CacheTTL: time.Minute, MaxPageSize: 50}

	taskBus := infraEvents.NewInMemoryEventBus(taskDomain.TaskTopic)
	userBus := infraEvents.NewInMemoryEventBus(userDomain.UserTopic)
	t.Cleanup(taskBus.Close)
	t.Cleanup(userBus.Close)

	router := sharedBus.TopicRouter{
		taskDomain.TaskTopic: taskBus,
		userDomain.UserTopic: userBus,
	}
	registry := sharedEvents.MergeRegistries(taskDomain.NewEventRegistry(), userDomain.NewEventRegistry())

	return app{
		tasks:  taskApp.NewTaskService(taskRepo, cache, log, opts),
		users:  userApp.NewUserService(userRepo, cache, log, opts),
		worker: relayer.NewOutboxWorker(sqlite.NewOutboxRepoSQLite(db), router, registry, time.Second, 50, log),
		taskCh: taskBus.Subscribe(10),
		userCh: userBus.Subscribe(10),
	}
}

func drain(ch <-chan interface{}) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-ch:
			out = append(out, msg.([]byte))
		default:
			return out
		}
	}
}

func TestCrudFlow_EventsReachTheirTopic(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()

	user, err := a.users.Create(ctx, &userDomain.User{
		Email:     "ana@example.com",
		Name:      "Ana",
		BirthDate: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	task, err := a.tasks.Create(ctx, &taskDomain.Task{Title: "Revisar informe", AssigneeID: user.ID})
	require.NoError(t, err)
	_, err = a.tasks.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, a.worker.ProcessBatch(ctx))
	assert.Equal(t, 0, a.worker.ProcessBatch(ctx), "los eventos ya quedaron marcados")

	var taskTypes []string
	for _, payload := range drain(a.taskCh) {
		var evt sharedEvents.IntegrationEvent
		require.NoError(t, json.Unmarshal(payload, &evt))
		assert.Equal(t, task.ID.String(), evt.AggregateID)
		assert.Equal(t, taskDomain.TaskAggregate, evt.AggregateType)
		taskTypes = append(taskTypes, evt.Type)
	}
	assert.ElementsMatch(t, []string{taskDomain.TaskCreated, taskDomain.TaskUpdated}, taskTypes)

	userMsgs := drain(a.userCh)
	require.Len(t, userMsgs, 1)
	var userEvt sharedEvents.IntegrationEvent
	require.NoError(t, json.Unmarshal(userMsgs[0], &userEvt))
	assert.Equal(t, userDomain.UserCreated, userEvt.Type)

	var data userDomain.User
	require.NoError(t, json.Unmarshal(userEvt.Data, &data))
	assert.Equal(t, "ana@example.com", data.Email)
}

func TestCrudFlow_AssigneeListing(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()
	assignee := uuid.New()

	first, err := a.tasks.Create(ctx, &taskDomain.Task{Title: "uno", AssigneeID: assignee})
	require.NoError(t, err)
	second, err := a.tasks.Create(ctx, &taskDomain.Task{Title: "dos", AssigneeID: assignee})
	require.NoError(t, err)
	_, err = a.tasks.Create(ctx, &taskDomain.Task{Title: "ajena", AssigneeID: uuid.New()})
	require.NoError(t, err)

	_, err = a.tasks.CompleteTask(ctx, first.ID)
	require.NoError(t, err)

	pending, err := a.tasks.ListPendingTasksForUser(ctx, assignee, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	completed, err := a.tasks.ListCompletedTasksForUser(ctx, assignee, nil)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, first.ID, completed[0].ID)
}

func TestCrudFlow_AuditLoggerReceivesPublishedEvents(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()

	repo := new(mocks.MockEventLogRepository)
	repo.On("LogBatch", mock.Anything, mock.MatchedBy(func(batch []auditDomain.LoggedEvent) bool {
		return len(batch) == 2
	})).Return(nil).Once()
	logger := auditApp.NewEventLogger(repo, zap.NewNop(), 10, time.Minute)

	for _, name := range []string{"Ana", "Luis"} {
		_, err := a.users.Create(ctx, &userDomain.User{
			Email:     name + "@example.com",
			Name:      name,
			BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	require.Equal(t, 2, a.worker.ProcessBatch(ctx))

	for _, payload := range drain(a.userCh) {
		logger.HandleMessage(ctx, "", payload)
	}
	assert.Equal(t, 2, logger.Pending())

	require.NoError(t, logger.Flush(ctx))
	assert.Equal(t, 0, logger.Pending())
	repo.AssertExpectations(t)
}
