package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
	"github.com/taskdeck/backend/usecase"
)

// UpdateFields carries a partial update: nil means "leave unchanged".
// ClearDueDate removes an existing due date, which a nil DueDate cannot express.
type UpdateFields struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	Category     *string
	DueDate      *time.Time
	ClearDueDate bool
}

// UseCase implements the per-user task store. The cache and the activity
// recorder are optional collaborators: both degrade to no-ops when absent or
// failing.
type UseCase struct {
	tasks    repository.TaskRepository
	cache    repository.TaskListCache
	activity usecase.ActivityRecorder
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, cache repository.TaskListCache, activity usecase.ActivityRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		cache:    cache,
		activity: activity,
		logger:   logger,
	}
}

// List returns every task owned by userID, served from the cache when fresh.
func (uc *UseCase) List(ctx context.Context, userID string) ([]domain.Task, error) {
	if uc.cache != nil {
		if tasks, hit, err := uc.cache.Get(ctx, userID); err == nil && hit {
			return tasks, nil
		} else if err != nil {
			uc.logger.Warn("task cache read failed", zap.Error(err))
		}
	}

	tasks, err := uc.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, userID, tasks); err != nil {
			uc.logger.Warn("task cache fill failed", zap.Error(err))
		}
	}
	return tasks, nil
}

// Get returns a single task. A task owned by someone else is reported as
// missing, never as forbidden.
func (uc *UseCase) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, userID, id)
}

// Create validates fields, applies defaults and persists a new task owned by
// task.UserID.
func (uc *UseCase) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.Status == "" {
		task.Status = domain.StatusTodo
	}
	if err := validate(task); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, created.UserID)
	uc.record(ctx, created, domain.ActivityCreated)
	return created, nil
}

// Update applies only the supplied fields to an owned task.
func (uc *UseCase) Update(ctx context.Context, userID, id string, fields UpdateFields) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if fields.Title != nil {
		task.Title = *fields.Title
	}
	if fields.Description != nil {
		task.Description = *fields.Description
	}
	if fields.Status != nil {
		task.Status = *fields.Status
	}
	if fields.Priority != nil {
		task.Priority = *fields.Priority
	}
	if fields.Category != nil {
		task.Category = *fields.Category
	}
	if fields.ClearDueDate {
		task.DueDate = nil
	} else if fields.DueDate != nil {
		task.DueDate = fields.DueDate
	}

	if err := validate(task); err != nil {
		return nil, err
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, userID)
	uc.record(ctx, task, domain.ActivityUpdated)
	return task, nil
}

// Delete removes an owned task. Repeating the call reports NotFound again.
func (uc *UseCase) Delete(ctx context.Context, userID, id string) error {
	if err := uc.tasks.Delete(ctx, userID, id); err != nil {
		return err
	}

	uc.invalidate(ctx, userID)
	uc.record(ctx, &domain.Task{ID: id, UserID: userID}, domain.ActivityDeleted)
	return nil
}

// Activity returns the user's recent audit entries, newest first.
func (uc *UseCase) Activity(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	if uc.activity == nil {
		return []domain.Activity{}, nil
	}
	entries, err := uc.activity.Recent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.Activity{}
	}
	return entries, nil
}

func (uc *UseCase) invalidate(ctx context.Context, userID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("task cache invalidation failed", zap.Error(err))
	}
}

func (uc *UseCase) record(ctx context.Context, task *domain.Task, action string) {
	if uc.activity == nil {
		return
	}
	uc.activity.Record(ctx, domain.Activity{
		UserID: task.UserID,
		TaskID: task.ID,
		Action: action,
		Title:  task.Title,
	})
}

func validate(task *domain.Task) error {
	if task.Title == "" {
		return domain.Invalid("title is required")
	}
	if task.Category == "" {
		return domain.Invalid("category is required")
	}
	if !domain.ValidPriority(task.Priority) {
		return domain.Invalid("priority must be one of low, medium, high")
	}
	if !domain.ValidStatus(task.Status) {
		return domain.Invalid("status must be one of todo, in-progress, completed")
	}
	return nil
}
