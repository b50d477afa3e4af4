package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "tasktracker/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type taskRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Completed   bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
	Deadline    *time.Time
}

func (taskRow) TableName() string { return "tasks" }

func rowFromTask(t dom.Task) taskRow {
	return taskRow{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		Deadline:    t.Deadline,
	}
}

func (r taskRow) toTask() (dom.Task, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return dom.Task{}, fmt.Errorf("task row id %q: %w", r.ID, err)
	}
	t := dom.Task{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.Deadline != nil {
		d := r.Deadline.UTC()
		t.Deadline = &d
	}
	return t, nil
}

// SQLiteTaskRepo stores tasks through gorm.
type SQLiteTaskRepo struct {
	db *gorm.DB
}

func NewSQLiteTaskRepo(db *gorm.DB) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	t.ID = uuid.New()
	row := rowFromTask(t)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return dom.Task{}, fmt.Errorf("create task: %w", err)
	}
	return row.toTask()
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (dom.Task, error) {
	return findTask(r.db.WithContext(ctx), id)
}

func (r *SQLiteTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Order("created_at ASC, rowid ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]dom.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTask()
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, id uuid.UUID, apply func(*dom.Task) error) (dom.Task, error) {
	var out dom.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findTask(tx, id)
		if err != nil {
			return err
		}
		if err := apply(&t); err != nil {
			return err
		}
		row := rowFromTask(t)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		out, err = row.toTask()
		return err
	})
	return out, err
}

// Delete removes a task; dom.ErrNotFound if nothing was deleted.
func (r *SQLiteTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&taskRow{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func findTask(db *gorm.DB, id uuid.UUID) (dom.Task, error) {
	var row taskRow
	err := db.Where("id = ?", id.String()).First(&row).Error
	switch {
	case err == nil:
		return row.toTask()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dom.Task{}, dom.ErrNotFound
	default:
		return dom.Task{}, fmt.Errorf("find task: %w", err)
	}
}
