package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/google/uuid"
)

// DocumentRepo implementa sharedDomain.Repository en memoria. Guarda cada
// entidad serializada, así que nunca comparte punteros con el llamante.
type DocumentRepo[T any, P sharedDomain.EntityPtr[T]] struct {
	mu     sync.RWMutex
	docs   map[uuid.UUID][]byte
	order  []uuid.UUID
	outbox *Outbox
}

// NewDocumentRepo crea el repositorio. outbox puede compartirse entre repositorios.
func NewDocumentRepo[T any, P sharedDomain.EntityPtr[T]](outbox *Outbox) *DocumentRepo[T, P] {
	if outbox == nil {
		outbox = NewOutbox()
	}
	return &DocumentRepo[T, P]{
		docs:   make(map[uuid.UUID][]byte),
		outbox: outbox,
	}
}

// Outbox expone el outbox asociado (útil en tests).
func (r *DocumentRepo[T, P]) Outbox() *Outbox { return r.outbox }

func (r *DocumentRepo[T, P]) Create(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	id := sharedDomain.IDOf[T, P](e)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; ok {
		return sharedDomain.ErrAlreadyExists
	}
	r.docs[id] = data
	r.order = append(r.order, id)
	r.outbox.add(evt)
	return nil
}

func (r *DocumentRepo[T, P]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	r.mu.RLock()
	data, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, sharedDomain.ErrNotFound
	}
	return decode[T](data)
}

func (r *DocumentRepo[T, P]) Update(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	id := sharedDomain.IDOf[T, P](e)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return sharedDomain.ErrNotFound
	}
	r.docs[id] = data
	r.outbox.add(evt)
	return nil
}

func (r *DocumentRepo[T, P]) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return sharedDomain.ErrNotFound
	}
	delete(r.docs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.outbox.add(evt)
	return nil
}

// Find evalúa el descriptor sobre la forma JSON de cada entidad, en orden de inserción.
func (r *DocumentRepo[T, P]) Find(ctx context.Context, q filter.Query) ([]*T, error) {
	r.mu.RLock()
	docs := make([]map[string]any, 0, len(r.order))
	payloads := make([][]byte, 0, len(r.order))
	for _, id := range r.order {
		payloads = append(payloads, r.docs[id])
	}
	r.mu.RUnlock()

	for _, data := range payloads {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid document: %w", err)
		}
		docs = append(docs, doc)
	}

	result := make([]*T, 0)
	for _, doc := range Apply(docs, q) {
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		e, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func decode[T any](data []byte) (*T, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &e, nil
}
