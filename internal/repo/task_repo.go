package repo

import (
	"context"
	"errors"
	"fmt"

	dom "tasktracker/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepo persists tasks. Implementations return dom.ErrNotFound for
// unknown ids and assign Task.ID on Create.
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (dom.Task, error)
	List(ctx context.Context) ([]dom.Task, error)
	// Update loads the task, passes it to apply and stores the result, all in
	// one transaction. If apply returns an error nothing is written.
	Update(ctx context.Context, id uuid.UUID, apply func(*dom.Task) error) (dom.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const taskColumns = `id, title, description, completed, created_at, deadline`

type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, completed, created_at, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taskColumns
	out, err := scanTask(r.db.QueryRow(ctx, query,
		uuid.New(), t.Title, t.Description, t.Completed, t.CreatedAt, t.Deadline,
	))
	if err != nil {
		return dom.Task{}, fmt.Errorf("create task: %w", err)
	}
	return out, nil
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	return t, noRows(err)
}

func (r *PGTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) Update(ctx context.Context, id uuid.UUID, apply func(*dom.Task) error) (dom.Task, error) {
	var out dom.Task
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return noRows(err)
		}
		if err := apply(&t); err != nil {
			return err
		}
		query := `
			UPDATE tasks SET title = $2, description = $3, completed = $4, deadline = $5
			WHERE id = $1
			RETURNING ` + taskColumns
		out, err = scanTask(tx.QueryRow(ctx, query, id, t.Title, t.Description, t.Completed, t.Deadline))
		return noRows(err)
	})
	return out, err
}

func (r *PGTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (dom.Task, error) {
	var t dom.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.Deadline)
	if err != nil {
		return dom.Task{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.Deadline != nil {
		d := t.Deadline.UTC()
		t.Deadline = &d
	}
	return t, nil
}

func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.ErrNotFound
	}
	return err
}
