package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/hexacrud/internal/audit/domain"
	"github.com/davicafu/hexacrud/pkg/utils"
)

// EventStats es el caso de uso que expone el handler.
type EventStats interface {
	CountByEventType(ctx context.Context, start, end time.Time) ([]domain.EventTypeCount, error)
}

type AuditHandler struct {
	stats EventStats
	log   *zap.Logger
	now   func() time.Time
}

func NewAuditHandler(stats EventStats, log *zap.Logger) *AuditHandler {
	return &AuditHandler{stats: stats, log: log, now: time.Now}
}

type statsQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// EventCounts endpoint GET /audit/events/stats?from=&to= (RFC 3339; por defecto las últimas 24h)
func (h *AuditHandler) EventCounts(c *gin.Context) {
	var q statsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.SendErrorWithDescription(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if q.To.IsZero() {
		q.To = h.now().UTC()
	}
	if q.From.IsZero() {
		q.From = q.To.Add(-24 * time.Hour)
	}

	counts, err := h.stats.CountByEventType(c.Request.Context(), q.From, q.To)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRange) {
			utils.SendErrorWithDescription(c, http.StatusBadRequest, "invalid query", err.Error())
			return
		}
		h.log.Error("Event stats query failed", zap.Error(err))
		utils.SendInternalServerError(c, "internal error")
		return
	}
	utils.SendSuccess(c, http.StatusOK, counts)
}

// RegisterAuditRoutes registra las rutas bajo "/audit".
func RegisterAuditRoutes(r gin.IRouter, handler *AuditHandler) {
	audit := r.Group("/audit")
	audit.GET("/events/stats", handler.EventCounts)
}
