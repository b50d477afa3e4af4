package domain

import (
	"time"

	"github.com/google/uuid"
)

// Domain entity: не зависит от Gin, Postgres, Redis.
type Task struct {
	ID          uuid.UUID
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	Deadline    *time.Time
}
