package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"todo-service/auth"
	"todo-service/models"
	"todo-service/store"
	"todo-service/validation"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/httpserver"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

const internalErrorMessage = "Something went wrong. Please try again later."

// logRequest logs the request with the specified format, shared by every handler.
// Route details and the authenticated client come from the httpserver context.
func logRequest(ctx context.Context, level string, message string, fields ...zap.Field) {
	routeName := httpserver.GetRouteName(ctx)
	method := httpserver.GetRouteMethod(ctx)
	path := httpserver.GetRoutePath(ctx)
	ra := httpserver.GetRequestAuth(ctx)

	// timestamp - route - method - path - client - message
	logMsg := time.Now().Format("2006-01-02 15:04:05") + " - " + routeName + " - " + method + " - " + path
	if ra != nil {
		logMsg += " - client:" + ra.Client
	}
	if message != "" {
		logMsg += " - " + message
	}

	allFields := append([]zap.Field{
		zap.String("route", routeName),
		zap.String("method", method),
		zap.String("path", path),
	}, fields...)

	switch level {
	case "info":
		logger.Info(logMsg, allFields...)
	case "error":
		logger.Error(logMsg, allFields...)
	case "debug":
		logger.Debug(logMsg, allFields...)
	}
}

// respond writes env as JSON with the given status code.
func respond(w http.ResponseWriter, code int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

// respondError maps err to a status code and envelope. notFound is the
// message used when err is store.ErrNotFound.
func respondError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	var fieldErrs validation.Errors
	switch {
	case errors.As(err, &fieldErrs):
		logRequest(ctx, "info", "Validation failed", zap.Int("fields", len(fieldErrs)))
		respond(w, http.StatusBadRequest, models.Failure("Validation Error.", fieldErrs))
	case errors.Is(err, store.ErrNotFound):
		logRequest(ctx, "info", notFound)
		respond(w, http.StatusNotFound, models.Failure(notFound, nil))
	case errors.Is(err, store.ErrDuplicateTitle):
		logRequest(ctx, "info", "Duplicate title")
		respond(w, http.StatusConflict, models.Failure("Title already exists.", nil))
	case errors.Is(err, store.ErrDuplicateUsername):
		logRequest(ctx, "info", "Duplicate username")
		respond(w, http.StatusConflict, models.Failure("Username already taken.", nil))
	case isAuthError(err):
		logRequest(ctx, "info", "Unauthorized", zap.Error(err))
		respond(w, http.StatusUnauthorized, models.Failure(auth.UserMessage(err), nil))
	default:
		logRequest(ctx, "error", "Request failed", zap.Error(err))
		respond(w, http.StatusInternalServerError, models.Failure(internalErrorMessage, nil))
	}
}

func isAuthError(err error) bool {
	for _, target := range []error{
		auth.ErrUnknownUser,
		auth.ErrWrongPassword,
		auth.ErrNotConfirmed,
		auth.ErrInactive,
		auth.ErrInvalidToken,
		auth.ErrExpiredToken,
		auth.ErrMissingToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeBody decodes the JSON request body into v. A malformed body is
// answered with 400 and false is returned.
func decodeBody(ctx context.Context, w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logRequest(ctx, "error", "Invalid request body", zap.Error(err))
		respond(w, http.StatusBadRequest, models.Failure("Invalid JSON", nil))
		return false
	}
	return true
}

// pathID parses the named mux variable as a positive integer id. An invalid
// id is answered with 404 since no record can match it.
func pathID(ctx context.Context, w http.ResponseWriter, r *http.Request, name, notFound string) (int, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		logRequest(ctx, "info", "Invalid id", zap.String(name, raw))
		respond(w, http.StatusNotFound, models.Failure(notFound, nil))
		return 0, false
	}
	return id, true
}

// userIDFromContext reads the authenticated user id that RequireBearer stored
// in the request auth claims.
func userIDFromContext(ctx context.Context) (int, bool) {
	ra := httpserver.GetRequestAuth(ctx)
	if ra == nil {
		return 0, false
	}
	claims, ok := ra.Claims.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch id := claims["user_id"].(type) {
	case int:
		return id, true
	case float64:
		return int(id), true
	default:
		return 0, false
	}
}
