package http

import "github.com/gin-gonic/gin"

// RegisterCrudRoutes registra las rutas CRUD de un recurso bajo prefix ("/tasks").
func RegisterCrudRoutes[T any](r gin.IRouter, prefix string, handler *CrudHandler[T]) *gin.RouterGroup {
	group := r.Group(prefix)
	{
		group.POST("", handler.Create)        // Crear
		group.GET("", handler.FindAll)        // Listar todo
		group.POST("/filter", handler.Filter) // Filtrar, ordenar y paginar
		group.GET("/:id", handler.FindOne)    // Obtener por id
		group.PATCH("/:id", handler.Update)   // Actualización parcial
		group.DELETE("/:id", handler.Remove)  // Eliminar
	}
	return group
}
