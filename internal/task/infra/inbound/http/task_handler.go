package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	sharedHttp "github.com/davicafu/hexacrud/internal/shared/infra/inbound/http"
	"github.com/davicafu/hexacrud/internal/task/application"
	taskDomain "github.com/davicafu/hexacrud/internal/task/domain"
	"github.com/davicafu/hexacrud/pkg/utils"
)

// TaskHandler encapsula los endpoints HTTP relacionados con Task. El CRUD
// y /filter vienen del handler genérico.
type TaskHandler struct {
	*sharedHttp.CrudHandler[taskDomain.Task]
	service *application.TaskService
	log     *zap.Logger
}

// NewTaskHandler crea un nuevo TaskHandler.
func NewTaskHandler(service *application.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		CrudHandler: sharedHttp.NewCrudHandler[taskDomain.Task](service, log),
		service:     service,
		log:         log,
	}
}

// listQuery son los parámetros de GET /tasks/assignee/:userId
type listQuery struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// ListForAssignee endpoint GET /tasks/assignee/:userId?status=pending
func (h *TaskHandler) ListForAssignee(c *gin.Context) {
	userID, ok := sharedHttp.ParseUUIDParam(c, "userId")
	if !ok {
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if q.Status == "" {
		q.Status = string(taskDomain.TaskPending)
	}

	var page *filter.Pagination
	if q.Page > 0 || q.PageSize > 0 {
		page = &filter.Pagination{Page: q.Page, PageSize: q.PageSize}
	}

	tasks, err := h.service.ListTasksForUser(c.Request.Context(), userID, taskDomain.TaskStatus(q.Status), page)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CompleteTask endpoint POST /tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	id, ok := sharedHttp.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.service.CompleteTask(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// FailTask endpoint POST /tasks/:id/fail
func (h *TaskHandler) FailTask(c *gin.Context) {
	id, ok := sharedHttp.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.service.FailTask(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) sendError(c *gin.Context, err error) {
	if errors.Is(err, taskDomain.ErrTaskCannotComplete) {
		utils.SendError(c, http.StatusConflict, err.Error())
		return
	}
	sharedHttp.SendError(c, h.log, err)
}

// Verificación estática: el servicio cubre el contrato del handler genérico.
var _ sharedHttp.CrudService[taskDomain.Task] = (*application.TaskService)(nil)
