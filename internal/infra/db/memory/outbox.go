package memory

import (
	"context"
	"fmt"
	"sync"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/google/uuid"
)

// Outbox es la tabla outbox en memoria. Implementa sharedDomain.OutboxRepository.
type Outbox struct {
	mu     sync.Mutex
	events []sharedDomain.OutboxEvent
}

var _ sharedDomain.OutboxRepository = (*Outbox)(nil)

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) add(evt sharedDomain.OutboxEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, evt)
}

// Events devuelve una copia de todos los eventos, procesados o no.
func (o *Outbox) Events() []sharedDomain.OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := make([]sharedDomain.OutboxEvent, len(o.events))
	copy(cp, o.events)
	return cp
}

func (o *Outbox) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var pending []sharedDomain.OutboxEvent
	for _, evt := range o.events {
		if evt.Processed {
			continue
		}
		pending = append(pending, evt)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (o *Outbox) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.events {
		if o.events[i].ID == id {
			o.events[i].Processed = true
			return nil
		}
	}
	return fmt.Errorf("outbox event not found: %s", id)
}
