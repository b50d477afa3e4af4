package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "tasktracker/internal/domain"

	"github.com/google/uuid"
)

const localDateTimeLayout = "2006-01-02T15:04:05.999999999"

// LocalDateTime is an ISO-8601 datetime without offset ("2025-12-31T10:00:00").
// Values are UTC wall clock. On input it also accepts "2006-01-02T15:04",
// RFC3339 with an offset (converted to UTC) and date-only (start of day UTC).
type LocalDateTime struct{ t time.Time }

// NewLocalDateTime wraps t for JSON output.
func NewLocalDateTime(t time.Time) LocalDateTime { return LocalDateTime{t: t.UTC()} }

func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.t.UTC().Format(localDateTimeLayout) + `"`), nil
}

func (d *LocalDateTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseLocalDateTime(raw)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// Time returns the wrapped time in UTC.
func (d LocalDateTime) Time() time.Time { return d.t }

// ParseLocalDateTime parses s using the layouts LocalDateTime accepts.
func ParseLocalDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		"2006-01-02T15:04:05", // fractional seconds are accepted by time.Parse
		time.RFC3339Nano,
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("datetime %q: use YYYY-MM-DDTHH:MM:SS or RFC3339", s)
}

// nullable returns nil for JSON null, otherwise the parsed value.
func nullable(data []byte) (*time.Time, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var d LocalDateTime
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	t := d.Time()
	return &t, nil
}

// Deadline is an optional LocalDateTime; absent and null both leave it unset.
type Deadline struct{ t *time.Time }

func (d *Deadline) UnmarshalJSON(data []byte) error {
	t, err := nullable(data)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// Ptr returns *time.Time for use in service/domain.
func (d Deadline) Ptr() *time.Time { return d.t }

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    Deadline `json:"deadline" swaggertype:"string" example:"2025-12-31T10:00:00"`
}

// UpdateTaskRequest carries a partial update. nil = не менять.
type UpdateTaskRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Completed   *bool    `json:"completed"`
	Deadline    Deadline `json:"deadline" swaggertype:"string" example:"2025-12-31T10:00:00"`
}

type TaskResponse struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Completed   bool           `json:"completed"`
	CreatedAt   LocalDateTime  `json:"createdAt" swaggertype:"string" example:"2025-12-20T00:00:00"`
	Deadline    *LocalDateTime `json:"deadline" swaggertype:"string" example:"2025-12-31T10:00:00"`
}

func TaskToResponse(t dom.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   NewLocalDateTime(t.CreatedAt),
	}
	if t.Deadline != nil {
		d := NewLocalDateTime(*t.Deadline)
		resp.Deadline = &d
	}
	return resp
}

// TasksToResponses never returns nil so an empty list encodes as [].
func TasksToResponses(list []dom.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = TaskToResponse(list[i])
	}
	return out
}
