package repository

import (
	"context"

	"github.com/taskdeck/backend/domain"
)

// TaskListCache caches a user's full task list between mutations. A cache
// miss or cache failure always falls through to the primary store.
type TaskListCache interface {
	Get(ctx context.Context, userID string) ([]domain.Task, bool, error)
	Set(ctx context.Context, userID string, tasks []domain.Task) error
	Invalidate(ctx context.Context, userID string) error
}
