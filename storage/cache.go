package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

type taskBackend interface {
	CreateTask(ctx context.Context, t domain.Task) error
	UpdateTask(ctx context.Context, workspaceID, id string, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, workspaceID, id string) error
	ListWorkspaceTasks(ctx context.Context, workspaceID string) ([]domain.Task, error)
}

// Cache wraps a Storage instance with Redis-backed caching of each
// workspace's task list. Reads fall back to the backing storage on any cache
// trouble; writes evict the workspace's entry so the next read refetches.
type Cache struct {
	*Storage
	base  taskBackend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client
// and TTL.
func NewCache(base taskBackend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) ListWorkspaceTasks(ctx context.Context, workspaceID string) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, workspaceID); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListWorkspaceTasks(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, workspaceID, tasks)
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, t domain.Task) error {
	if err := c.base.CreateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.WorkspaceID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, workspaceID, id string, upd domain.TaskUpdate) (domain.Task, error) {
	t, err := c.base.UpdateTask(ctx, workspaceID, id, upd)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, workspaceID)
	return t, nil
}

func (c *Cache) DeleteTask(ctx context.Context, workspaceID, id string) error {
	if err := c.base.DeleteTask(ctx, workspaceID, id); err != nil {
		return err
	}
	c.evict(ctx, workspaceID)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, workspaceID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(workspaceID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(workspaceID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(workspaceID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, workspaceID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(workspaceID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, workspaceID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(workspaceID)).Result()
}

func tasksCacheKey(workspaceID string) string {
	return "tasks:" + workspaceID
}
