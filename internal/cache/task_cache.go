package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "tasktracker/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList = "task:list"
	keyGen  = "task:list:gen"
)

// ErrStaleList is returned by SetList when a write bumped the generation
// after the list was read from the store.
var ErrStaleList = errors.New("task list changed while it was being read")

// TaskCache caches the full task list in Redis. Every write bumps a
// generation counter; a list is only stored under the generation it was
// read at.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// Generation returns the current list generation (0 if never written).
func (c *TaskCache) Generation(ctx context.Context) (int64, error) {
	return getGen(ctx, c.rdb)
}

// GetList returns cached list or nil if miss. A cached empty list is
// returned as a non-nil empty slice.
func (c *TaskCache) GetList(ctx context.Context) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, keyList).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Task{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores a list read at generation gen. It returns ErrStaleList
// and stores nothing if the generation moved on.
func (c *TaskCache) SetList(ctx context.Context, gen int64, list []dom.Task) error {
	if list == nil {
		list = []dom.Task{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := getGen(ctx, tx)
		if err != nil {
			return err
		}
		if cur != gen {
			return ErrStaleList
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, keyList, b, c.ttl)
			return nil
		})
		return err
	}, keyGen)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleList
	}
	return err
}

// Invalidate bumps the generation and drops the cached list (called on
// every write, after the store commit).
func (c *TaskCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, keyGen)
		p.Del(ctx, keyList)
		return nil
	})
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getGen(ctx context.Context, cmd getter) (int64, error) {
	gen, err := cmd.Get(ctx, keyGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
