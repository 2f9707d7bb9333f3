package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const opTimeout = 200 * time.Millisecond

// detached conserva los valores de ctx pero no su cancelación: la petición
// puede haber terminado cuando la caché responde.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
}

// AsyncCacheSet calienta la caché en background sin bloquear. El valor se
// serializa antes de lanzar la goroutine, así el llamante puede modificarlo.
// Solo para lecturas: tras una escritura hay que usar CacheSet o Invalidate.
func AsyncCacheSet(ctx context.Context, cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn("Cache update skipped", zap.String("key", key), zap.Error(err))
		return
	}

	go func() {
		cacheCtx, cancel := detached(ctx)
		defer cancel()

		if err := cache.Set(cacheCtx, key, json.RawMessage(data), ttl); err != nil {
			log.Warn("Cache update failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}

// CacheSet guarda el valor antes de volver.
func CacheSet(ctx context.Context, cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}
	cacheCtx, cancel := detached(ctx)
	defer cancel()

	if err := cache.Set(cacheCtx, key, value, ttl); err != nil {
		log.Warn("Cache update failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate borra la clave antes de volver. Un fallo solo se registra: el
// repositorio ya tiene la nueva versión y la entrada caduca con su TTL.
func Invalidate(ctx context.Context, cache Cache, key string, log *zap.Logger) {
	if cache == nil {
		return
	}
	cacheCtx, cancel := detached(ctx)
	defer cancel()

	if err := cache.Delete(cacheCtx, key); err != nil {
		log.Warn("Cache deletion failed",
			zap.String("key", key),
			zap.Error(err))
	}
}
