package mocks

import (
	"context"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRepository es un sharedDomain.Repository programable con testify.
type MockRepository[T any] struct {
	mock.Mock
}

var _ sharedDomain.Repository[struct{}] = (*MockRepository[struct{}])(nil)

func (m *MockRepository[T]) Create(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, e, evt).Error(0)
}

func (m *MockRepository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*T)
	return e, args.Error(1)
}

func (m *MockRepository[T]) Update(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, e, evt).Error(0)
}

func (m *MockRepository[T]) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, id, evt).Error(0)
}

func (m *MockRepository[T]) Find(ctx context.Context, q filter.Query) ([]*T, error) {
	args := m.Called(ctx, q)
	out, _ := args.Get(0).([]*T)
	return out, args.Error(1)
}
