// Package manager applies per-user ownership to todo and task operations.
package manager

import (
	"context"

	"todo-service/cache"
	"todo-service/models"
)

type TodoRepository interface {
	List(ctx context.Context, userID int) ([]models.Todo, error)
	Get(ctx context.Context, userID, id int) (models.Todo, error)
	Create(ctx context.Context, userID int, fields models.TodoFields) (models.Todo, error)
	Update(ctx context.Context, userID, id int, fields models.TodoFields) (models.Todo, error)
	Delete(ctx context.Context, userID, id int) (models.Todo, error)
}

type TaskRepository interface {
	List(ctx context.Context, todoID int) ([]models.Task, error)
	Get(ctx context.Context, todoID, id int) (models.Task, error)
	Create(ctx context.Context, todoID int, fields models.TaskFields) (models.Task, error)
	Update(ctx context.Context, todoID, id int, fields models.TaskFields) (models.Task, error)
	Delete(ctx context.Context, todoID, id int) (models.Task, error)
}

// Manager is the only entry point handlers use for todos and tasks. Task
// operations resolve the parent todo under the requesting user first, so a
// todo owned by someone else behaves exactly like a missing one.
type Manager struct {
	todos TodoRepository
	tasks TaskRepository
	cache *cache.Store
}

func New(todos TodoRepository, tasks TaskRepository, cache *cache.Store) *Manager {
	return &Manager{todos: todos, tasks: tasks, cache: cache}
}

func (m *Manager) ListTodos(ctx context.Context, userID int) ([]models.Todo, error) {
	key := cache.TodoListKey(userID)

	var todos []models.Todo
	if m.cache.GetJSON(key, &todos) && todos != nil {
		return todos, nil
	}

	todos, err := m.todos.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	m.cache.SetJSON(key, todos, cache.TodoListTTL)
	return todos, nil
}

// GetTodo returns the user's todo with its tasks attached.
func (m *Manager) GetTodo(ctx context.Context, userID, id int) (models.Todo, error) {
	todo, err := m.todos.Get(ctx, userID, id)
	if err != nil {
		return models.Todo{}, err
	}
	todo.Tasks, err = m.tasks.List(ctx, todo.ID)
	if err != nil {
		return models.Todo{}, err
	}
	return todo, nil
}

func (m *Manager) CreateTodo(ctx context.Context, userID int, fields models.TodoFields) (models.Todo, error) {
	todo, err := m.todos.Create(ctx, userID, fields)
	if err != nil {
		return models.Todo{}, err
	}
	m.invalidate(userID)
	return todo, nil
}

func (m *Manager) UpdateTodo(ctx context.Context, userID, id int, fields models.TodoFields) (models.Todo, error) {
	todo, err := m.todos.Update(ctx, userID, id, fields)
	if err != nil {
		return models.Todo{}, err
	}
	m.invalidate(userID)
	return todo, nil
}

// DeleteTodo removes the todo and every task under it.
func (m *Manager) DeleteTodo(ctx context.Context, userID, id int) (models.Todo, error) {
	todo, err := m.todos.Delete(ctx, userID, id)
	if err != nil {
		return models.Todo{}, err
	}
	m.invalidate(userID)
	return todo, nil
}

func (m *Manager) ListTasks(ctx context.Context, userID, todoID int) ([]models.Task, error) {
	if _, err := m.todos.Get(ctx, userID, todoID); err != nil {
		return nil, err
	}
	return m.tasks.List(ctx, todoID)
}

func (m *Manager) GetTask(ctx context.Context, userID, todoID, id int) (models.Task, error) {
	if _, err := m.todos.Get(ctx, userID, todoID); err != nil {
		return models.Task{}, err
	}
	return m.tasks.Get(ctx, todoID, id)
}

func (m *Manager) CreateTask(ctx context.Context, userID, todoID int, fields models.TaskFields) (models.Task, error) {
	if _, err := m.todos.Get(ctx, userID, todoID); err != nil {
		return models.Task{}, err
	}
	task, err := m.tasks.Create(ctx, todoID, fields)
	if err != nil {
		return models.Task{}, err
	}
	m.invalidate(userID)
	return task, nil
}

func (m *Manager) UpdateTask(ctx context.Context, userID, todoID, id int, fields models.TaskFields) (models.Task, error) {
	if _, err := m.todos.Get(ctx, userID, todoID); err != nil {
		return models.Task{}, err
	}
	task, err := m.tasks.Update(ctx, todoID, id, fields)
	if err != nil {
		return models.Task{}, err
	}
	m.invalidate(userID)
	return task, nil
}

func (m *Manager) DeleteTask(ctx context.Context, userID, todoID, id int) (models.Task, error) {
	if _, err := m.todos.Get(ctx, userID, todoID); err != nil {
		return models.Task{}, err
	}
	task, err := m.tasks.Delete(ctx, todoID, id)
	if err != nil {
		return models.Task{}, err
	}
	m.invalidate(userID)
	return task, nil
}

func (m *Manager) invalidate(userID int) {
	m.cache.Delete(cache.TodoListKey(userID))
}
