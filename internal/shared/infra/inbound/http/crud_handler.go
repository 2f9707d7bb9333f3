package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	sharedApp "github.com/davicafu/hexacrud/internal/shared/application"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/davicafu/hexacrud/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CrudService es lo que el handler necesita de la capa de aplicación.
// application.CrudService lo implementa para cualquier entidad.
type CrudService[T any] interface {
	Create(ctx context.Context, e *T) (*T, error)
	FindAll(ctx context.Context) ([]*T, error)
	FindOne(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*T, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Filter(ctx context.Context, f filter.Filter) ([]*T, error)
}

// CrudHandler expone los endpoints CRUD y de filtrado de un recurso.
type CrudHandler[T any] struct {
	service CrudService[T]
	log     *zap.Logger
}

func NewCrudHandler[T any](service CrudService[T], log *zap.Logger) *CrudHandler[T] {
	return &CrudHandler[T]{service: service, log: log}
}

// Create endpoint POST /
func (h *CrudHandler[T]) Create(c *gin.Context) {
	var e T
	if err := c.ShouldBindJSON(&e); err != nil {
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), &e)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// FindAll endpoint GET /
func (h *CrudHandler[T]) FindAll(c *gin.Context) {
	all, err := h.service.FindAll(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// FindOne endpoint GET /:id
func (h *CrudHandler[T]) FindOne(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	e, err := h.service.FindOne(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Filter endpoint POST /filter. El cuerpo es un Filter; vacío equivale a "todo".
func (h *CrudHandler[T]) Filter(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil && !errors.Is(err, io.EOF) {
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}

	f, err := filter.Decode(raw)
	if err != nil {
		h.sendError(c, err)
		return
	}

	result, err := h.service.Filter(c.Request.Context(), f)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update endpoint PATCH /:id. El cuerpo es un JSON merge patch.
func (h *CrudHandler[T]) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Remove endpoint DELETE /:id
func (h *CrudHandler[T]) Remove(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), id); err != nil {
		h.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	return ParseUUIDParam(c, "id")
}

// ParseUUIDParam lee un parámetro de ruta UUID. Si no es válido responde 400.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.SendBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *CrudHandler[T]) sendError(c *gin.Context, err error) {
	SendError(c, h.log, err)
}

// SendError traduce los errores de dominio a respuestas HTTP. Los no
// reconocidos se registran y se responden como 500.
func SendError(c *gin.Context, log *zap.Logger, err error) {
	var queryErr *sharedDomain.QueryError

	switch {
	case errors.Is(err, filter.ErrInvalidFilter):
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "Invalid Filter", err.Error())
	case errors.As(err, &queryErr):
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "Query Error", queryErr.Cause.Error())
	case errors.Is(err, sharedApp.ErrInvalidPatch):
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "invalid body", err.Error())
	case errors.Is(err, sharedDomain.ErrNotFound):
		utils.SendNotFound(c, err.Error())
	case errors.Is(err, sharedDomain.ErrAlreadyExists):
		utils.SendError(c, http.StatusConflict, err.Error())
	default:
		log.Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		utils.SendInternalServerError(c, "internal error")
	}
}
