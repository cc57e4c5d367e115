package store

import (
	"context"
	"fmt"
	"time"

	"todo-service/models"

	"github.com/jmoiron/sqlx"
)

const todoColumns = "id, task, body, estimated_time, user_id, created_at, updated_at"

// TodoStore persists todos. Every method is scoped by the owning user id; a
// todo is never looked up by its id alone.
type TodoStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTodoStore(db *sqlx.DB) *TodoStore {
	return &TodoStore{db: db, now: time.Now}
}

// List returns the user's todos in insertion order. It never returns nil.
func (s *TodoStore) List(ctx context.Context, userID int) ([]models.Todo, error) {
	todos := []models.Todo{}
	err := s.db.SelectContext(ctx, &todos,
		s.db.Rebind("SELECT "+todoColumns+" FROM todos WHERE user_id = ? ORDER BY id ASC"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func (s *TodoStore) Get(ctx context.Context, userID, id int) (models.Todo, error) {
	return getTodo(ctx, s.db, userID, id)
}

// Create inserts a todo for userID. The title must be unique for that user;
// the unique index backs up the pre-check against concurrent inserts.
func (s *TodoStore) Create(ctx context.Context, userID int, fields models.TodoFields) (models.Todo, error) {
	taken, err := s.titleTaken(ctx, userID, fields.Task, 0)
	if err != nil {
		return models.Todo{}, err
	}
	if taken {
		return models.Todo{}, ErrDuplicateTitle
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	todo := models.Todo{
		Task:          fields.Task,
		Body:          fields.Body,
		EstimatedTime: fields.EstimatedTime,
		UserID:        userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !fields.CreatedAt.IsZero() {
		todo.CreatedAt = fields.CreatedAt.UTC().Truncate(time.Microsecond)
	}

	err = s.db.QueryRowxContext(ctx,
		s.db.Rebind("INSERT INTO todos (task, body, estimated_time, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id"),
		todo.Task, todo.Body, todo.EstimatedTime, todo.UserID, todo.CreatedAt, todo.UpdatedAt,
	).Scan(&todo.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Todo{}, ErrDuplicateTitle
		}
		return models.Todo{}, fmt.Errorf("failed to insert todo: %w", err)
	}

	return todo, nil
}

// Update replaces the writable fields of the user's todo. Renaming to a title
// the user already has fails with ErrDuplicateTitle.
func (s *TodoStore) Update(ctx context.Context, userID, id int, fields models.TodoFields) (models.Todo, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Todo{}, err
	}

	if fields.Task != current.Task {
		taken, err := s.titleTaken(ctx, userID, fields.Task, id)
		if err != nil {
			return models.Todo{}, err
		}
		if taken {
			return models.Todo{}, ErrDuplicateTitle
		}
	}

	current.Task = fields.Task
	current.Body = fields.Body
	current.EstimatedTime = fields.EstimatedTime
	current.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)

	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE todos SET task = ?, body = ?, estimated_time = ?, updated_at = ? WHERE id = ? AND user_id = ?"),
		current.Task, current.Body, current.EstimatedTime, current.UpdatedAt, id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Todo{}, ErrDuplicateTitle
		}
		return models.Todo{}, fmt.Errorf("failed to update todo: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.Todo{}, ErrNotFound
	}

	return current, nil
}

// Delete removes the user's todo together with all of its tasks in a single
// transaction. Nothing is removed if any step fails.
func (s *TodoStore) Delete(ctx context.Context, userID, id int) (models.Todo, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	todo, err := getTodo(ctx, tx, userID, id)
	if err != nil {
		return models.Todo{}, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tasks WHERE todo_id = ?"), id); err != nil {
		return models.Todo{}, fmt.Errorf("failed to delete tasks of todo %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM todos WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return models.Todo{}, fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return models.Todo{}, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return models.Todo{}, fmt.Errorf("failed to commit todo deletion: %w", err)
	}
	return todo, nil
}

func (s *TodoStore) titleTaken(ctx context.Context, userID int, title string, excludeID int) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM todos WHERE user_id = ? AND task = ? AND id <> ?"), userID, title, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check todo title: %w", err)
	}
	return count > 0, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func getTodo(ctx context.Context, q queryer, userID, id int) (models.Todo, error) {
	var todo models.Todo
	err := sqlx.GetContext(ctx, q, &todo,
		q.Rebind("SELECT "+todoColumns+" FROM todos WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return models.Todo{}, notFound(err)
	}
	return todo, nil
}
