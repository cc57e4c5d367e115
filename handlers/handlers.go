package handlers

import (
	"context"
	"errors"
	"net/http"

	"todo-service/models"
	"todo-service/store"
	"todo-service/validation"

	"go.uber.org/zap"
)

const (
	todoNotFound        = "Todo not exists with this id"
	todoNotOwned        = "Todo not exists with this id or You are not authorized"
	taskNotFound        = "Task not exists with this id"
	taskNotOwned        = "Task not exists with this id or You are not authorized"
	unauthorizedMessage = "Unauthorized."
)

// ResourceManager is the ownership-scoped todo and task API the handlers use.
type ResourceManager interface {
	ListTodos(ctx context.Context, userID int) ([]models.Todo, error)
	GetTodo(ctx context.Context, userID, id int) (models.Todo, error)
	CreateTodo(ctx context.Context, userID int, fields models.TodoFields) (models.Todo, error)
	UpdateTodo(ctx context.Context, userID, id int, fields models.TodoFields) (models.Todo, error)
	DeleteTodo(ctx context.Context, userID, id int) (models.Todo, error)

	ListTasks(ctx context.Context, userID, todoID int) ([]models.Task, error)
	GetTask(ctx context.Context, userID, todoID, id int) (models.Task, error)
	CreateTask(ctx context.Context, userID, todoID int, fields models.TaskFields) (models.Task, error)
	UpdateTask(ctx context.Context, userID, todoID, id int, fields models.TaskFields) (models.Task, error)
	DeleteTask(ctx context.Context, userID, todoID, id int) (models.Task, error)
}

// TodoHandler handles the /todos routes and the nested task routes
type TodoHandler struct {
	manager ResourceManager
	// principal resolves the authenticated user id of a request
	principal func(ctx context.Context) (int, bool)
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(manager ResourceManager) *TodoHandler {
	return &TodoHandler{
		manager:   manager,
		principal: userIDFromContext,
	}
}

// currentUser returns the caller's user id, answering 401 when there is none.
func (h *TodoHandler) currentUser(ctx context.Context, w http.ResponseWriter) (int, bool) {
	userID, ok := h.principal(ctx)
	if !ok {
		logRequest(ctx, "error", "Missing authenticated user")
		respond(w, http.StatusUnauthorized, models.Failure(unauthorizedMessage, nil))
		return 0, false
	}
	return userID, true
}

// GetTodos handles GET /todos - list the caller's todos
func (h *TodoHandler) GetTodos(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	logRequest(ctx, "info", "Listing todos", zap.Int("user_id", userID))

	todos, err := h.manager.ListTodos(ctx, userID)
	if err != nil {
		respondError(ctx, w, err, todoNotFound)
		return
	}

	logRequest(ctx, "info", "Todos retrieved successfully", zap.Int("count", len(todos)))
	respond(w, http.StatusOK, models.Success("Operation success", models.TodoResponses(todos)))
}

// GetTodo handles GET /todos/{id} - a missing todo yields an empty object
func (h *TodoHandler) GetTodo(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	id, ok := pathID(ctx, w, r, "id", todoNotFound)
	if !ok {
		return
	}

	logRequest(ctx, "info", "Getting todo", zap.Int("todo_id", id))

	todo, err := h.manager.GetTodo(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		logRequest(ctx, "info", "Todo not found", zap.Int("todo_id", id))
		respond(w, http.StatusOK, models.Success("Operation success", struct{}{}))
		return
	}
	if err != nil {
		respondError(ctx, w, err, todoNotFound)
		return
	}

	respond(w, http.StatusOK, models.Success("Operation success", todo.Response()))
}

// CreateTodo handles POST /todos
func (h *TodoHandler) CreateTodo(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	var req models.TodoRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		respondError(ctx, w, err, todoNotFound)
		return
	}

	logRequest(ctx, "info", "Creating todo", zap.String("task", req.Task))

	todo, err := h.manager.CreateTodo(ctx, userID, req.Fields())
	if err != nil {
		respondError(ctx, w, err, todoNotFound)
		return
	}

	logRequest(ctx, "info", "Todo created successfully", zap.Int("todo_id", todo.ID))
	respond(w, http.StatusCreated, models.Success("Todo add Success.", todo.Response()))
}

// UpdateTodo handles PUT /todos/{id}
func (h *TodoHandler) UpdateTodo(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	id, ok := pathID(ctx, w, r, "id", todoNotOwned)
	if !ok {
		return
	}

	var req models.TodoRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		respondError(ctx, w, err, todoNotOwned)
		return
	}

	logRequest(ctx, "info", "Updating todo", zap.Int("todo_id", id))

	todo, err := h.manager.UpdateTodo(ctx, userID, id, req.Fields())
	if err != nil {
		respondError(ctx, w, err, todoNotOwned)
		return
	}

	logRequest(ctx, "info", "Todo updated successfully", zap.Int("todo_id", id))
	respond(w, http.StatusOK, models.Success("Todo update Success.", todo.Response()))
}

// DeleteTodo handles DELETE /todos/{id} - its tasks are removed with it
func (h *TodoHandler) DeleteTodo(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	id, ok := pathID(ctx, w, r, "id", todoNotFound)
	if !ok {
		return
	}

	logRequest(ctx, "info", "Deleting todo", zap.Int("todo_id", id))

	if _, err := h.manager.DeleteTodo(ctx, userID, id); err != nil {
		respondError(ctx, w, err, todoNotFound)
		return
	}

	logRequest(ctx, "info", "Todo deleted successfully", zap.Int("todo_id", id))
	respond(w, http.StatusOK, models.Success("Todo delete Success.", nil))
}
