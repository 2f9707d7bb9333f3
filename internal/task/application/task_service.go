package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/hexacrud/internal/shared/application"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	sharedCache "github.com/davicafu/hexacrud/internal/shared/infra/platform/cache"
	taskDomain "github.com/davicafu/hexacrud/internal/task/domain"
)

// TaskService añade los casos de uso de Task al CRUD genérico.
type TaskService struct {
	*sharedApp.CrudService[taskDomain.Task, *taskDomain.Task]
	log *zap.Logger
}

// NewTaskService es el constructor para el servicio de tareas.
func NewTaskService(repo sharedDomain.Repository[taskDomain.Task], cache sharedCache.Cache, log *zap.Logger, opts sharedApp.Options) *TaskService {
	return &TaskService{
		CrudService: sharedApp.NewCrudService[taskDomain.Task](taskDomain.TaskAggregate, repo, cache, log, opts),
		log:         log,
	}
}

// Create toda tarea nueva empieza en pending.
func (s *TaskService) Create(ctx context.Context, t *taskDomain.Task) (*taskDomain.Task, error) {
	t.Status = taskDomain.TaskPending
	return s.CrudService.Create(ctx, t)
}

// CompleteTask marca como completada una tarea pendiente.
func (s *TaskService) CompleteTask(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	return s.transition(ctx, id, (*taskDomain.Task).Complete)
}

// FailTask marca la tarea como fallida.
func (s *TaskService) FailTask(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	return s.transition(ctx, id, func(t *taskDomain.Task) error {
		t.Fail()
		return nil
	})
}

func (s *TaskService) transition(ctx context.Context, id uuid.UUID, apply func(*taskDomain.Task) error) (*taskDomain.Task, error) {
	task, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(task); err != nil {
		s.log.Warn("Invalid task transition",
			zap.String("task_id", id.String()),
			zap.String("status", string(task.Status)),
			zap.Error(err),
		)
		return nil, err
	}
	return s.Replace(ctx, task)
}

// ListTasksForUser devuelve las tareas de un usuario con el estado indicado,
// de la más antigua a la más reciente.
func (s *TaskService) ListTasksForUser(ctx context.Context, userID uuid.UUID, status taskDomain.TaskStatus, page *filter.Pagination) ([]*taskDomain.Task, error) {
	switch status {
	case taskDomain.TaskPending, taskDomain.TaskCompleted, taskDomain.TaskFailed:
	default:
		return nil, &filter.InvalidFilterError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}

	return s.Filter(ctx, filter.Filter{
		Filters: filter.Many(
			filter.SearchQuery{By: "status", Operator: "eq", Value: string(status)},
			filter.SearchQuery{By: "assigneeId", Operator: "eq", Value: userID.String()},
		),
		Order:      []filter.Order{{By: "createdAt", Operator: "ASC"}},
		Pagination: page,
	})
}

func (s *TaskService) ListPendingTasksForUser(ctx context.Context, userID uuid.UUID, page *filter.Pagination) ([]*taskDomain.Task, error) {
	return s.ListTasksForUser(ctx, userID, taskDomain.TaskPending, page)
}

func (s *TaskService) ListCompletedTasksForUser(ctx context.Context, userID uuid.UUID, page *filter.Pagination) ([]*taskDomain.Task, error) {
	return s.ListTasksForUser(ctx, userID, taskDomain.TaskCompleted, page)
}
