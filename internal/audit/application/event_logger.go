// Package application acumula los eventos CRUD y los guarda por lotes.
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/hexacrud/internal/audit/domain"
	sharedEvents "github.com/davicafu/hexacrud/internal/shared/domain/events"
	sharedUtils "github.com/davicafu/hexacrud/internal/shared/infra/utils"
)

// maxBufferedBatches evita crecer sin límite si el almacén está caído.
const maxBufferedBatches = 10

// EventLogger recibe eventos de integración y los escribe en lotes.
type EventLogger struct {
	repo          domain.EventLogRepository
	log           *zap.Logger
	batchSize     int
	flushInterval time.Duration

	mu     sync.Mutex
	buffer []domain.LoggedEvent
}

func NewEventLogger(repo domain.EventLogRepository, log *zap.Logger, batchSize int, flushInterval time.Duration) *EventLogger {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &EventLogger{
		repo:          repo,
		log:           log,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (l *EventLogger) HandleMessage(ctx context.Context, key string, payload []byte) {
	sharedUtils.UnmarshalAndHandle[sharedEvents.IntegrationEvent](l.log, payload, func(evt sharedEvents.IntegrationEvent) {
		if evt.Type == "" {
			l.log.Warn("Ignoring event without type", zap.String("key", key))
			return
		}
		if l.add(domain.FromIntegrationEvent(evt)) {
			if err := l.Flush(ctx); err != nil {
				l.log.Warn("Event log flush failed", zap.Error(err))
			}
		}
	})
}

// add devuelve true cuando el buffer alcanza el tamaño de lote.
func (l *EventLogger) add(evt domain.LoggedEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buffer) >= l.batchSize*maxBufferedBatches {
		l.log.Warn("Event log buffer full, dropping event", zap.String("event_id", evt.EventID))
		return true
	}
	l.buffer = append(l.buffer, evt)
	return len(l.buffer) >= l.batchSize
}

// Pending devuelve cuántos eventos esperan a ser escritos.
func (l *EventLogger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Flush escribe lo acumulado. Si falla, los eventos vuelven al buffer.
func (l *EventLogger) Flush(ctx context.Context) error {
	l.mu.Lock()
	batch := l.buffer
	l.buffer = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := l.repo.LogBatch(ctx, batch); err != nil {
		l.mu.Lock()
		l.buffer = append(batch, l.buffer...)
		l.mu.Unlock()
		return fmt.Errorf("log batch of %d events: %w", len(batch), err)
	}
	l.log.Debug("Event batch logged", zap.Int("events", len(batch)))
	return nil
}

// Run vacía el buffer cada flushInterval. Al cancelar ctx hace un último Flush.
func (l *EventLogger) Run(ctx context.Context) {
	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := l.Flush(flushCtx); err != nil {
				l.log.Warn("Final event log flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := l.Flush(ctx); err != nil {
				l.log.Warn("Event log flush failed", zap.Error(err))
			}
		}
	}
}

// CountByEventType valida el rango y consulta el almacén.
func (l *EventLogger) CountByEventType(ctx context.Context, start, end time.Time) ([]domain.EventTypeCount, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", domain.ErrInvalidRange)
	}
	return l.repo.CountByEventType(ctx, start, end)
}
