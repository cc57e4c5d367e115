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

// GetTasks handles GET /todos/{id}/task
func (h *TodoHandler) GetTasks(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	todoID, ok := pathID(ctx, w, r, "id", todoNotFound)
	if !ok {
		return
	}

	logRequest(ctx, "info", "Listing tasks", zap.Int("todo_id", todoID))

	tasks, err := h.manager.ListTasks(ctx, userID, todoID)
	if err != nil {
		respondError(ctx, w, err, todoNotFound)
		return
	}

	logRequest(ctx, "info", "Tasks retrieved successfully", zap.Int("count", len(tasks)))
	respond(w, http.StatusOK, models.Success("Operation success", models.TaskResponses(tasks)))
}

// GetTask handles GET /todos/{id}/task/{childId} - a missing task yields an empty object
func (h *TodoHandler) GetTask(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	todoID, ok := pathID(ctx, w, r, "id", todoNotFound)
	if !ok {
		return
	}
	id, ok := pathID(ctx, w, r, "childId", taskNotFound)
	if !ok {
		return
	}

	task, err := h.manager.GetTask(ctx, userID, todoID, id)
	if errors.Is(err, store.ErrNotFound) {
		logRequest(ctx, "info", "Task not found", zap.Int("todo_id", todoID), zap.Int("task_id", id))
		respond(w, http.StatusOK, models.Success("Operation success", struct{}{}))
		return
	}
	if err != nil {
		respondError(ctx, w, err, taskNotFound)
		return
	}

	respond(w, http.StatusOK, models.Success("Operation success", task.Response()))
}

// CreateTask handles POST /todos/{id}/task
func (h *TodoHandler) CreateTask(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	todoID, ok := pathID(ctx, w, r, "id", todoNotOwned)
	if !ok {
		return
	}

	var req models.TaskRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		respondError(ctx, w, err, todoNotOwned)
		return
	}

	logRequest(ctx, "info", "Creating task", zap.Int("todo_id", todoID))

	task, err := h.manager.CreateTask(ctx, userID, todoID, req.Fields())
	if err != nil {
		respondError(ctx, w, err, todoNotOwned)
		return
	}

	logRequest(ctx, "info", "Task created successfully", zap.Int("task_id", task.ID))
	respond(w, http.StatusCreated, models.Success("Task add Success.", task.Response()))
}

// UpdateTask handles PUT /todos/{id}/task/{childId}
func (h *TodoHandler) UpdateTask(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	todoID, ok := pathID(ctx, w, r, "id", taskNotOwned)
	if !ok {
		return
	}
	id, ok := pathID(ctx, w, r, "childId", taskNotOwned)
	if !ok {
		return
	}

	var req models.TaskRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		respondError(ctx, w, err, taskNotOwned)
		return
	}

	logRequest(ctx, "info", "Updating task", zap.Int("todo_id", todoID), zap.Int("task_id", id))

	task, err := h.manager.UpdateTask(ctx, userID, todoID, id, req.Fields())
	if err != nil {
		respondError(ctx, w, err, taskNotOwned)
		return
	}

	respond(w, http.StatusOK, models.Success("Task update Success.", task.Response()))
}

// DeleteTask handles DELETE /todos/{id}/task/{childId}
func (h *TodoHandler) DeleteTask(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}
	todoID, ok := pathID(ctx, w, r, "id", taskNotFound)
	if !ok {
		return
	}
	id, ok := pathID(ctx, w, r, "childId", taskNotFound)
	if !ok {
		return
	}

	logRequest(ctx, "info", "Deleting task", zap.Int("todo_id", todoID), zap.Int("task_id", id))

	if _, err := h.manager.DeleteTask(ctx, userID, todoID, id); err != nil {
		respondError(ctx, w, err, taskNotFound)
		return
	}

	respond(w, http.StatusOK, models.Success("Task delete Success.", nil))
}
