package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	dom "tasktracker/internal/domain"

	"github.com/google/uuid"
)

func TestParseLocalDateTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-12-31T10:00:00", time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC)},
		{"2025-12-31T10:00:00.5", time.Date(2025, 12, 31, 10, 0, 0, 500000000, time.UTC)},
		{"2025-12-31T10:00", time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC)},
		{"2025-12-31T12:00:00+02:00", time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC)},
		{"2025-12-31T10:00:00Z", time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC)},
		{"2025-12-31", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseLocalDateTime(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) || got.Location() != time.UTC {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}

	for _, bad := range []string{"", "tomorrow", "31.12.2025", "2025-13-01T00:00:00"} {
		if _, err := ParseLocalDateTime(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestTaskResponseJSON(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	b, err := json.Marshal(TaskToResponse(dom.Task{
		ID:        id,
		Title:     "T",
		CreatedAt: created,
	}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	for _, want := range []string{
		`"id":"` + id.String() + `"`,
		`"createdAt":"2025-12-20T00:00:00"`,
		`"deadline":null`,
		`"completed":false`,
		`"description":""`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}

	deadline := time.Date(2025, 12, 31, 10, 0, 0, 123000000, time.UTC)
	b, err = json.Marshal(TaskToResponse(dom.Task{ID: id, CreatedAt: created, Deadline: &deadline}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"deadline":"2025-12-31T10:00:00.123"`) {
		t.Fatalf("unexpected deadline encoding: %s", b)
	}
}

func TestUpdateTaskRequestOmittedAndNull(t *testing.T) {
	var req UpdateTaskRequest
	if err := json.Unmarshal([]byte(`{"completed":true,"deadline":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Title != nil || req.Description != nil {
		t.Fatalf("expected absent title/description")
	}
	if req.Completed == nil || !*req.Completed {
		t.Fatalf("expected completed=true")
	}
	if req.Deadline.Ptr() != nil {
		t.Fatalf("null deadline must mean no change")
	}

	if err := json.Unmarshal([]byte(`{"deadline":"2026-01-01T09:30:00"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	if req.Deadline.Ptr() == nil || !req.Deadline.Ptr().Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, req.Deadline.Ptr())
	}

	if err := json.Unmarshal([]byte(`{"deadline":42}`), &req); err == nil {
		t.Fatalf("expected error for numeric deadline")
	}
}
