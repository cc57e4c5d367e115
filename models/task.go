package models

import (
	"strings"
	"time"
)

// Task belongs to a todo (TodoID). A non-empty Task label is unique within its todo.
type Task struct {
	ID            int       `json:"id" db:"id"`
	Task          string    `json:"task" db:"task"`
	Priority      string    `json:"priority" db:"priority"`
	EstimatedTime float64   `json:"estimated_time" db:"estimated_time"`
	TodoID        int       `json:"-" db:"todo_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"-" db:"updated_at"`
}

type TaskFields struct {
	Task          string
	Priority      string
	EstimatedTime float64
	CreatedAt     time.Time
}

// TaskRequest is the body of POST /todos/{id}/task and PUT /todos/{id}/task/{childId}
type TaskRequest struct {
	Task          string   `json:"task"`
	Priority      string   `json:"priority" validate:"required"`
	EstimatedTime *float64 `json:"estimated_time" validate:"required,gte=0"`
	CreatedAt     string   `json:"created_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type TaskResponse struct {
	ID            int       `json:"id"`
	Task          string    `json:"task"`
	Priority      string    `json:"priority"`
	EstimatedTime float64   `json:"estimated_time"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (r *TaskRequest) Normalize() {
	r.Task = strings.TrimSpace(r.Task)
	r.Priority = strings.TrimSpace(r.Priority)
	r.CreatedAt = strings.TrimSpace(r.CreatedAt)
}

func (r TaskRequest) Fields() TaskFields {
	fields := TaskFields{Task: r.Task, Priority: r.Priority}
	if r.EstimatedTime != nil {
		fields.EstimatedTime = *r.EstimatedTime
	}
	if r.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			fields.CreatedAt = t
		}
	}
	return fields
}

func (t Task) Response() TaskResponse {
	return TaskResponse{
		ID:            t.ID,
		Task:          t.Task,
		Priority:      t.Priority,
		EstimatedTime: t.EstimatedTime,
		CreatedAt:     t.CreatedAt,
	}
}

func TaskResponses(tasks []Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Response())
	}
	return out
}
