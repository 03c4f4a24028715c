package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/repository"
)

type taskListCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewTaskListCache creates a Redis-backed cache of per-user task lists.
func NewTaskListCache(client *redislib.Client, ttl time.Duration) repository.TaskListCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &taskListCache{
		client: client,
		prefix: "tasks:",
		ttl:    ttl,
	}
}

func (c *taskListCache) Get(ctx context.Context, userID string) ([]domain.Task, bool, error) {
	result, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var tasks []domain.Task
	if err := json.Unmarshal([]byte(result), &tasks); err != nil {
		// Treat a corrupt entry as a miss and drop it.
		_ = c.client.Del(ctx, c.key(userID)).Err()
		return nil, false, nil
	}
	return tasks, true, nil
}

func (c *taskListCache) Set(ctx context.Context, userID string, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), payload, c.ttl).Err()
}

func (c *taskListCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *taskListCache) key(userID string) string {
	return fmt.Sprintf("%s%s", c.prefix, userID)
}
