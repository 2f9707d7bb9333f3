// Package application contiene los casos de uso CRUD genéricos que comparten
// todos los recursos. Cada dominio los compone en su propio servicio.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/events"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	sharedCache "github.com/davicafu/hexacrud/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/hexacrud/internal/shared/infra/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options ajusta el comportamiento del servicio. Los valores cero desactivan cada opción.
type Options struct {
	// CacheTTL es la vida de cada entrada en caché.
	CacheTTL time.Duration
	// MaxPageSize limita el pageSize aceptado por Filter.
	MaxPageSize int
}

const (
	defaultCacheTTL = time.Minute
	retryAttempts   = 3
	retryDelay      = 100 * time.Millisecond
)

// CrudService implementa los casos de uso CRUD de un agregado sobre cualquier
// Repository. Las escrituras generan el evento de outbox correspondiente.
type CrudService[T any, P sharedDomain.EntityPtr[T]] struct {
	aggregate string
	repo      sharedDomain.Repository[T]
	cache     sharedCache.Cache
	log       *zap.Logger
	opts      Options
	now       func() time.Time
}

func NewCrudService[T any, P sharedDomain.EntityPtr[T]](
	aggregate string,
	repo sharedDomain.Repository[T],
	cache sharedCache.Cache,
	log *zap.Logger,
	opts Options,
) *CrudService[T, P] {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &CrudService[T, P]{
		aggregate: aggregate,
		repo:      repo,
		cache:     cache,
		log:       log,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate devuelve el nombre del agregado ("task", "user"...).
func (s *CrudService[T, P]) Aggregate() string { return s.aggregate }

func (s *CrudService[T, P]) cacheKey(id uuid.UUID) string {
	return sharedCache.Key(s.aggregate, id)
}

func (s *CrudService[T, P]) ttlSecs() int {
	return int(s.opts.CacheTTL / time.Second)
}

// Create asigna id y marcas de tiempo, guarda la entidad y su evento y
// devuelve la representación almacenada.
func (s *CrudService[T, P]) Create(ctx context.Context, e *T) (*T, error) {
	now := s.now()
	base := P(e).EntityBase()
	base.ID = uuid.New()
	base.CreatedAt = now
	base.UpdatedAt = now

	evt := sharedDomain.NewOutboxEvent(s.aggregate, events.ActionCreated, base.ID, e, now)
	if err := s.repo.Create(ctx, e, evt); err != nil {
		s.log.Error("Failed to create entity", zap.String("aggregate", s.aggregate), zap.Error(err))
		return nil, err
	}

	sharedCache.CacheSet(ctx, s.cache, s.cacheKey(base.ID), e, s.ttlSecs(), s.log)
	return e, nil
}

// FindAll devuelve todas las entidades en orden de inserción.
func (s *CrudService[T, P]) FindAll(ctx context.Context) ([]*T, error) {
	return s.repo.Find(ctx, filter.Query{})
}

// FindOne usa cache-aside con reintentos. ErrNotFound no se reintenta.
func (s *CrudService[T, P]) FindOne(ctx context.Context, id uuid.UUID) (*T, error) {
	// 1. Intentar obtener de la caché
	if s.cache != nil {
		var cached T
		if hit, _ := s.cache.Get(ctx, s.cacheKey(id), &cached); hit {
			return &cached, nil
		}
	}

	// 2. Si es 'miss', ir al repositorio con reintentos
	var entity *T
	err := sharedUtils.Retry(ctx, retryAttempts, retryDelay, func() error {
		var errRetry error
		entity, errRetry = s.repo.GetByID(ctx, id)
		if errors.Is(errRetry, sharedDomain.ErrNotFound) {
			return sharedUtils.Permanent(errRetry)
		}
		return errRetry
	})
	if err != nil {
		if errors.Is(err, sharedDomain.ErrNotFound) {
			s.log.Warn("Entity not found", zap.String("aggregate", s.aggregate), zap.String("id", id.String()))
			return nil, sharedDomain.NotFoundError(s.aggregate, id.String())
		}
		s.log.Error("Failed to fetch entity", zap.String("aggregate", s.aggregate), zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	// 3. Actualizar caché en segundo plano para la próxima vez
	sharedCache.AsyncCacheSet(ctx, s.cache, s.cacheKey(id), entity, s.ttlSecs(), s.log)
	return entity, nil
}

// Update aplica un JSON merge patch sobre la entidad guardada. El id y
// createdAt no cambian. Devuelve la representación actualizada.
func (s *CrudService[T, P]) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*T, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sharedDomain.ErrNotFound) {
			return nil, sharedDomain.NotFoundError(s.aggregate, id.String())
		}
		return nil, err
	}

	merged, err := applyPatch(current, patch)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, merged, P(current).EntityBase())
}

// Replace guarda e tal cual, conservando id y createdAt de la versión
// almacenada. Lo usan los servicios de dominio tras mutar una entidad.
func (s *CrudService[T, P]) Replace(ctx context.Context, e *T) (*T, error) {
	id := P(e).EntityBase().ID
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sharedDomain.ErrNotFound) {
			return nil, sharedDomain.NotFoundError(s.aggregate, id.String())
		}
		return nil, err
	}
	return s.save(ctx, e, P(current).EntityBase())
}

// save escribe e con la identidad de stored y una nueva marca updatedAt.
func (s *CrudService[T, P]) save(ctx context.Context, e *T, stored *sharedDomain.Base) (*T, error) {
	base := P(e).EntityBase()
	base.ID = stored.ID
	base.CreatedAt = stored.CreatedAt
	base.UpdatedAt = s.now()

	evt := sharedDomain.NewOutboxEvent(s.aggregate, events.ActionUpdated, base.ID, e, base.UpdatedAt)
	if err := s.repo.Update(ctx, e, evt); err != nil {
		if errors.Is(err, sharedDomain.ErrNotFound) {
			return nil, sharedDomain.NotFoundError(s.aggregate, base.ID.String())
		}
		s.log.Error("Failed to update entity", zap.String("aggregate", s.aggregate), zap.Error(err))
		return nil, err
	}

	// La próxima lectura recarga la versión guardada.
	sharedCache.Invalidate(ctx, s.cache, s.cacheKey(base.ID), s.log)
	return e, nil
}

// Remove borra la entidad y limpia la caché.
func (s *CrudService[T, P]) Remove(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(s.aggregate, events.ActionDeleted, id, events.DeletedPayload{ID: id.String()}, s.now())
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		if errors.Is(err, sharedDomain.ErrNotFound) {
			return sharedDomain.NotFoundError(s.aggregate, id.String())
		}
		s.log.Error("Failed to delete entity", zap.String("aggregate", s.aggregate), zap.Error(err))
		return err
	}

	sharedCache.Invalidate(ctx, s.cache, s.cacheKey(id), s.log)
	return nil
}

// Filter compila la petición y la ejecuta. Un filtro inválido nunca llega al
// backend; los fallos del backend se devuelven como *QueryError.
func (s *CrudService[T, P]) Filter(ctx context.Context, f filter.Filter) ([]*T, error) {
	if err := s.checkPageSize(&f); err != nil {
		return nil, err
	}

	q, err := filter.Compile(f)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.Find(ctx, q)
	if err != nil {
		s.log.Error("Filter query failed",
			zap.String("aggregate", s.aggregate),
			zap.Stringer("where", whereString(q.Where)),
			zap.Error(err),
		)
		return nil, &sharedDomain.QueryError{Cause: err}
	}
	return result, nil
}

// checkPageSize rechaza páginas mayores que MaxPageSize y, sin paginación,
// limita la consulta a la primera página de ese tamaño.
func (s *CrudService[T, P]) checkPageSize(f *filter.Filter) error {
	limit := s.opts.MaxPageSize
	if limit <= 0 {
		return nil
	}
	if f.Pagination == nil {
		f.Pagination = &filter.Pagination{Page: 1, PageSize: limit}
		return nil
	}
	if f.Pagination.PageSize > limit {
		return &filter.InvalidFilterError{
			Field:  "pagination.pageSize",
			Reason: fmt.Sprintf("must not exceed %d", limit),
		}
	}
	return nil
}

type whereString []filter.Predicate

func (w whereString) String() string {
	if w == nil {
		return "<all>"
	}
	parts := make([]string, len(w))
	for i, p := range w {
		parts[i] = p.String()
	}
	return strings.Join(parts, " OR ")
}

// applyPatch aplica un JSON merge patch (RFC 7396) sobre la forma JSON de current.
func applyPatch[T any](current *T, patch map[string]any) (*T, error) {
	data, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	merged, err := json.Marshal(mergePatch(doc, patch))
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return &out, nil
}

// ErrInvalidPatch indica que el patch no encaja con la forma de la entidad.
var ErrInvalidPatch = errors.New("invalid patch")

func mergePatch(target, patch map[string]any) map[string]any {
	if target == nil {
		target = map[string]any{}
	}
	for k, v := range patch {
		if v == nil {
			delete(target, k)
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			existing, _ := target[k].(map[string]any)
			target[k] = mergePatch(existing, sub)
			continue
		}
		target[k] = v
	}
	return target
}
