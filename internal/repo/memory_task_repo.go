package repo

import (
	"context"
	"sync"

	dom "tasktracker/internal/domain"

	"github.com/google/uuid"
)

// MemoryTaskRepo keeps tasks in process memory, in insertion order.
type MemoryTaskRepo struct {
	mu    sync.Mutex
	order []uuid.UUID
	tasks map[uuid.UUID]dom.Task
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{tasks: make(map[uuid.UUID]dom.Task)}
}

func (r *MemoryTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.New()
	r.tasks[t.ID] = cloneTask(t)
	r.order = append(r.order, t.ID)
	return cloneTask(t), nil
}

func (r *MemoryTaskRepo) GetByID(_ context.Context, id uuid.UUID) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, dom.ErrNotFound
	}
	return cloneTask(t), nil
}

func (r *MemoryTaskRepo) List(_ context.Context) ([]dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]dom.Task, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, cloneTask(r.tasks[id]))
	}
	return list, nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, id uuid.UUID, apply func(*dom.Task) error) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, dom.ErrNotFound
	}
	t = cloneTask(t)
	if err := apply(&t); err != nil {
		return dom.Task{}, err
	}
	t.ID = id
	r.tasks[id] = cloneTask(t)
	return t, nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return dom.ErrNotFound
	}
	delete(r.tasks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// cloneTask copies the deadline so callers can't mutate stored state.
func cloneTask(t dom.Task) dom.Task {
	if t.Deadline != nil {
		d := *t.Deadline
		t.Deadline = &d
	}
	return t
}
