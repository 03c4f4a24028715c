package repository

import (
	"context"

	"github.com/taskdeck/backend/domain"
)

// TaskRepository persists tasks. Every lookup and mutation is scoped by the
// owning user id so a foreign task behaves exactly like a missing one.
type TaskRepository interface {
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, userID, id string) error
}
