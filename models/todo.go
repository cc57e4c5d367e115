package models

import (
	"strings"
	"time"
)

// Todo is owned by a user (UserID). Task is its title and is unique per owner.
type Todo struct {
	ID            int       `json:"id" db:"id"`
	Task          string    `json:"task" db:"task"`
	Body          string    `json:"body" db:"body"`
	EstimatedTime float64   `json:"estimated_time" db:"estimated_time"`
	UserID        int       `json:"-" db:"user_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"-" db:"updated_at"`
	Tasks         []Task    `json:"tasks,omitempty" db:"-"`
}

// TodoFields are the writable fields of a todo
type TodoFields struct {
	Task          string
	Body          string
	EstimatedTime float64
	CreatedAt     time.Time // zero means now
}

// TodoRequest is the body of POST /todos and PUT /todos/{id}
type TodoRequest struct {
	Task          string   `json:"task" validate:"required"`
	Body          string   `json:"body"`
	EstimatedTime *float64 `json:"estimated_time" validate:"required,gte=0"`
	CreatedAt     string   `json:"created_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// TodoResponse is the public projection of a todo
type TodoResponse struct {
	ID            int            `json:"id"`
	Task          string         `json:"task"`
	Body          string         `json:"body"`
	EstimatedTime float64        `json:"estimated_time"`
	CreatedAt     time.Time      `json:"createdAt"`
	Tasks         []TaskResponse `json:"tasks,omitempty"`
}

// Normalize trims surrounding whitespace the way the form inputs expect.
func (r *TodoRequest) Normalize() {
	r.Task = strings.TrimSpace(r.Task)
	r.Body = strings.TrimSpace(r.Body)
	r.CreatedAt = strings.TrimSpace(r.CreatedAt)
}

// Fields converts a validated request. Call it only after validation succeeded.
func (r TodoRequest) Fields() TodoFields {
	fields := TodoFields{Task: r.Task, Body: r.Body}
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

func (t Todo) Response() TodoResponse {
	resp := TodoResponse{
		ID:            t.ID,
		Task:          t.Task,
		Body:          t.Body,
		EstimatedTime: t.EstimatedTime,
		CreatedAt:     t.CreatedAt,
	}
	if len(t.Tasks) > 0 {
		resp.Tasks = TaskResponses(t.Tasks)
	}
	return resp
}

func TodoResponses(todos []Todo) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.Response())
	}
	return out
}
