package store

import (
	"context"
	"fmt"
	"time"

	"todo-service/models"

	"github.com/jmoiron/sqlx"
)

const taskColumns = "id, task, priority, estimated_time, todo_id, created_at, updated_at"

// TaskStore persists tasks scoped by their parent todo id. It does not know
// about users: callers resolve the todo under the requesting user first.
type TaskStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTaskStore(db *sqlx.DB) *TaskStore {
	return &TaskStore{db: db, now: time.Now}
}

// List returns the tasks of todoID in insertion order. It never returns nil.
func (s *TaskStore) List(ctx context.Context, todoID int) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.SelectContext(ctx, &tasks,
		s.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE todo_id = ? ORDER BY id ASC"), todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) Get(ctx context.Context, todoID, id int) (models.Task, error) {
	var task models.Task
	err := s.db.GetContext(ctx, &task,
		s.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND todo_id = ?"), id, todoID)
	if err != nil {
		return models.Task{}, notFound(err)
	}
	return task, nil
}

// Create inserts a task under todoID. A non-empty label must be unique within the todo.
func (s *TaskStore) Create(ctx context.Context, todoID int, fields models.TaskFields) (models.Task, error) {
	taken, err := s.labelTaken(ctx, todoID, fields.Task, 0)
	if err != nil {
		return models.Task{}, err
	}
	if taken {
		return models.Task{}, ErrDuplicateTitle
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	task := models.Task{
		Task:          fields.Task,
		Priority:      fields.Priority,
		EstimatedTime: fields.EstimatedTime,
		TodoID:        todoID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !fields.CreatedAt.IsZero() {
		task.CreatedAt = fields.CreatedAt.UTC().Truncate(time.Microsecond)
	}

	err = s.db.QueryRowxContext(ctx,
		s.db.Rebind("INSERT INTO tasks (task, priority, estimated_time, todo_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id"),
		task.Task, task.Priority, task.EstimatedTime, task.TodoID, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Task{}, ErrDuplicateTitle
		}
		return models.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}

	return task, nil
}

func (s *TaskStore) Update(ctx context.Context, todoID, id int, fields models.TaskFields) (models.Task, error) {
	current, err := s.Get(ctx, todoID, id)
	if err != nil {
		return models.Task{}, err
	}

	if fields.Task != current.Task {
		taken, err := s.labelTaken(ctx, todoID, fields.Task, id)
		if err != nil {
			return models.Task{}, err
		}
		if taken {
			return models.Task{}, ErrDuplicateTitle
		}
	}

	current.Task = fields.Task
	current.Priority = fields.Priority
	current.EstimatedTime = fields.EstimatedTime
	current.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)

	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE tasks SET task = ?, priority = ?, estimated_time = ?, updated_at = ? WHERE id = ? AND todo_id = ?"),
		current.Task, current.Priority, current.EstimatedTime, current.UpdatedAt, id, todoID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Task{}, ErrDuplicateTitle
		}
		return models.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.Task{}, ErrNotFound
	}

	return current, nil
}

func (s *TaskStore) Delete(ctx context.Context, todoID, id int) (models.Task, error) {
	task, err := s.Get(ctx, todoID, id)
	if err != nil {
		return models.Task{}, err
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM tasks WHERE id = ? AND todo_id = ?"), id, todoID)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to delete task: %w", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return models.Task{}, ErrNotFound
	}

	return task, nil
}

// labelTaken checks label uniqueness within a todo. Empty labels never collide.
func (s *TaskStore) labelTaken(ctx context.Context, todoID int, label string, excludeID int) (bool, error) {
	if label == "" {
		return false, nil
	}
	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM tasks WHERE todo_id = ? AND task = ? AND id <> ?"), todoID, label, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check task label: %w", err)
	}
	return count > 0, nil
}
