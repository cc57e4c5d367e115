package handlers

import (
	"context"
	"net/http"

	"todo-service/auth"
	"todo-service/models"

	"github.com/umakantv/go-utils/httpserver"
	"go.uber.org/zap"
)

// TokenAuthenticator resolves a bearer token to its user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// RequireBearer rejects requests without a valid bearer token with a 401
// envelope. Accepted requests carry the user in the httpserver request auth,
// where logRequest and userIDFromContext read it.
func RequireBearer(authn TokenAuthenticator, next httpserver.HandlerFunc) httpserver.HandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearer(r.Header.Get("Authorization"))

		user, err := authn.Authenticate(ctx, token)
		if err != nil {
			logRequest(ctx, "info", "Rejected bearer token", zap.Error(err))
			respond(w, http.StatusUnauthorized, models.Failure(auth.UserMessage(err), nil))
			return
		}

		ctx = context.WithValue(ctx, httpserver.RequestAuthKey, httpserver.RequestAuth{
			Type:   "bearer",
			Client: user.Username,
			Claims: map[string]interface{}{
				"user_id":  user.ID,
				"username": user.Username,
			},
		})
		next(ctx, w, r.WithContext(ctx))
	}
}
