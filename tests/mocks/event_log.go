package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/davicafu/hexacrud/internal/audit/domain"
)

// MockEventLogRepository simula el almacén analítico.
type MockEventLogRepository struct {
	mock.Mock
}

var _ auditDomain.EventLogRepository = (*MockEventLogRepository)(nil)

func (m *MockEventLogRepository) LogBatch(ctx context.Context, events []auditDomain.LoggedEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventLogRepository) CountByEventType(ctx context.Context, start, end time.Time) ([]auditDomain.EventTypeCount, error) {
	args := m.Called(ctx, start, end)
	counts, _ := args.Get(0).([]auditDomain.EventTypeCount)
	return counts, args.Error(1)
}
