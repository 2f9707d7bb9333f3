package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	sharedBus "github.com/davicafu/hexacrud/internal/shared/infra/platform/bus"
	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

var ErrTaskCannotComplete = errors.New("task cannot be marked as completed")

type Task struct {
	sharedDomain.Base
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	AssigneeID  uuid.UUID  `json:"assigneeId"`
	Status      TaskStatus `json:"status"`
	Priority    int        `json:"priority"`
	Tags        []string   `json:"tags"`
}

func (t *Task) PartitionKey() string {
	return t.ID.String()
}

// --- Métodos de dominio ---

// Complete sólo es válido desde pending.
func (t *Task) Complete() error {
	if t.Status != TaskPending {
		return ErrTaskCannotComplete
	}
	t.Status = TaskCompleted
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *Task) Fail() {
	t.Status = TaskFailed
	t.UpdatedAt = time.Now().UTC()
}

func (t *Task) Update(title, description string) {
	t.Title = title
	t.Description = description
	t.UpdatedAt = time.Now().UTC()
}

// Verificación estática para asegurar que Task implementa la interfaz
var _ sharedBus.Keyer = (*Task)(nil)
