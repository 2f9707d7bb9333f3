package http

import (
	"github.com/gin-gonic/gin"

	sharedHttp "github.com/davicafu/hexacrud/internal/shared/infra/inbound/http"
)

// RegisterUserRoutes registra las rutas HTTP de usuarios bajo "/users".
func RegisterUserRoutes(r gin.IRouter, handler *UserHandler) {
	users := sharedHttp.RegisterCrudRoutes(r, "/users", handler.CrudHandler)
	users.GET("/search", handler.SearchUsers)
}
