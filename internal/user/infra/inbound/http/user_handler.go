package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sharedHttp "github.com/davicafu/hexacrud/internal/shared/infra/inbound/http"
	"github.com/davicafu/hexacrud/internal/user/application"
	"github.com/davicafu/hexacrud/internal/user/domain"
	"github.com/davicafu/hexacrud/pkg/utils"
)

// UserHandler encapsula los endpoints HTTP relacionados con User
type UserHandler struct {
	*sharedHttp.CrudHandler[domain.User]
	service *application.UserService
	log     *zap.Logger
}

// NewUserHandler crea un nuevo UserHandler
func NewUserHandler(service *application.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		CrudHandler: sharedHttp.NewCrudHandler[domain.User](service, log),
		service:     service,
		log:         log,
	}
}

// SearchUsers endpoint GET /users/search?name=&city=&minAge=&maxAge=&sortBy=&desc=&page=&pageSize=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	var search domain.UserSearch
	if err := c.ShouldBindQuery(&search); err != nil {
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	users, err := h.service.Search(c.Request.Context(), search)
	if err != nil {
		sharedHttp.SendError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

var _ sharedHttp.CrudService[domain.User] = (*application.UserService)(nil)
