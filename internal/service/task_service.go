package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tasktracker/internal/cache"
	dom "tasktracker/internal/domain"
	"tasktracker/internal/repo"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrBlankTitle is returned when a title is empty after trimming.
var ErrBlankTitle = dom.InvalidInput("title must not be blank")

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Deadline    *time.Time
}

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	now   func() time.Time
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
// If now is nil, time.Now is used.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{repo: r, cache: c, now: now}
}

func (s *TaskService) Create(ctx context.Context, title, desc string, deadline *time.Time) (dom.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return dom.Task{}, ErrBlankTitle
	}

	t, err := s.repo.Create(ctx, dom.Task{
		Title:       title,
		Description: strings.TrimSpace(desc),
		Completed:   false,
		CreatedAt:   normalize(s.now()),
		Deadline:    normalizePtr(deadline),
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (dom.Task, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all tasks. Concurrent misses on the same cache generation
// share one store read, which runs detached from the callers' contexts.
func (s *TaskService) List(ctx context.Context) ([]dom.Task, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		log.Printf("task cache generation: %v", err)
		return s.repo.List(ctx)
	}

	ch := s.sf.DoChan(fmt.Sprintf("%s:%d", keyList, gen), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()
		return s.loadList(fctx, gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]dom.Task), nil
	}
}

func (s *TaskService) loadList(ctx context.Context, gen int64) ([]dom.Task, error) {
	list, err := s.cache.GetList(ctx)
	if err != nil {
		log.Printf("task cache get: %v", err)
	} else if list != nil {
		return list, nil
	}
	list, err = s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetList(ctx, gen, list); err != nil && !errors.Is(err, cache.ErrStaleList) {
		log.Printf("task cache set: %v", err)
	}
	return list, nil
}

// Update applies patch inside a single store transaction. An invalid field
// aborts the whole update and leaves the stored task unchanged.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, patch TaskPatch) (dom.Task, error) {
	t, err := s.repo.Update(ctx, id, func(t *dom.Task) error {
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return ErrBlankTitle
			}
			t.Title = title
		}
		if patch.Description != nil {
			t.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		if patch.Deadline != nil {
			t.Deadline = normalizePtr(patch.Deadline)
		}
		return nil
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Printf("task cache invalidate: %v", err)
		}
	}
}

const (
	keyList     = "list"
	listTimeout = 5 * time.Second
)

// normalize truncates to microseconds, the precision Postgres stores.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func normalizePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := normalize(*t)
	return &n
}
