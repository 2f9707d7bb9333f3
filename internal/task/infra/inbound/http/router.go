package http

import (
	"github.com/gin-gonic/gin"

	sharedHttp "github.com/davicafu/hexacrud/internal/shared/infra/inbound/http"
)

// RegisterTaskRoutes registra las rutas HTTP para el dominio de Tareas bajo "/tasks".
func RegisterTaskRoutes(r gin.IRouter, handler *TaskHandler) {
	tasks := sharedHttp.RegisterCrudRoutes(r, "/tasks", handler.CrudHandler)
	{
		tasks.GET("/assignee/:userId", handler.ListForAssignee) // Tareas de un usuario por estado
		tasks.POST("/:id/complete", handler.CompleteTask)       // pending -> completed
		tasks.POST("/:id/fail", handler.FailTask)               // -> failed
	}
}
