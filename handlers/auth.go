package handlers

import (
	"context"
	"net/http"

	"todo-service/models"

	"go.uber.org/zap"
)

// Authenticator is what the auth routes need from the authentication service.
type Authenticator interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.UserResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error)
}

// AuthHandler serves the public /auth routes
type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}
	req.Normalize()

	logRequest(ctx, "info", "Registering user", zap.String("username", req.Username))

	user, err := h.auth.Register(ctx, req)
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	logRequest(ctx, "info", "User registered", zap.Int("user_id", user.ID))
	respond(w, http.StatusCreated, models.Success("Successful registration", user))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(ctx, w, r, &req) {
		return
	}

	logRequest(ctx, "info", "Login request", zap.String("username", req.Username))

	resp, err := h.auth.Login(ctx, req)
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	logRequest(ctx, "info", "Login successful", zap.String("sub", resp.Subject))
	respond(w, http.StatusOK, models.Success("Successful login", resp))
}
