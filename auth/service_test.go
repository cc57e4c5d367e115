package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"todo-service/cache"
	"todo-service/database/dbtest"
	"todo-service/models"
	"todo-service/store"
	"todo-service/validation"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	utilcache "github.com/umakantv/go-utils/cache"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db := dbtest.New(t)
	tokens := NewTokenIssuer("secret", "todo-service", 15*time.Minute)
	return NewService(store.NewUserStore(db, bcrypt.MinCost), tokens, nil), db
}

func register(t *testing.T, svc *Service, username string) models.UserResponse {
	t.Helper()
	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return user
}

func fieldMessages(t *testing.T, err error) []string {
	t.Helper()
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	out := []string{}
	for _, fe := range verrs {
		out = append(out, fe.Msg)
	}
	return out
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user := register(t, svc, "alice")
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.IsConfirmed)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, models.RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "secret1"})
		assert.Equal(t, []string{"E-mail already in use"}, fieldMessages(t, err))
	})

	t.Run("non alphanumeric username", func(t *testing.T) {
		_, err := svc.Register(ctx, models.RegisterRequest{Username: "bob!", Email: "bob@example.com", Password: "secret1"})
		assert.Equal(t, []string{"Username has non-alphanumeric characters."}, fieldMessages(t, err))
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, models.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "123"})
		assert.Equal(t, []string{"Password must be 6 characters or greater."}, fieldMessages(t, err))
	})

	t.Run("field errors are collected together", func(t *testing.T) {
		_, err := svc.Register(ctx, models.RegisterRequest{Username: "b b", Email: "alice@example.com", Password: "1"})
		assert.Equal(t, []string{
			"Username has non-alphanumeric characters.",
			"Password must be 6 characters or greater.",
			"E-mail already in use",
		}, fieldMessages(t, err))
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "new@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, store.ErrDuplicateUsername)
	})
}

func TestLogin(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	alice := register(t, svc, "alice")
	register(t, svc, "unconfirmed")
	register(t, svc, "inactive")
	db.MustExec("UPDATE users SET is_confirmed = 0 WHERE username = 'unconfirmed'")
	db.MustExec("UPDATE users SET status = 0 WHERE username = 'inactive'")

	tests := []struct {
		name     string
		req      models.LoginRequest
		wantErr  error
		wantText string
	}{
		{"unknown user", models.LoginRequest{Username: "nobody", Password: "secret1"}, ErrUnknownUser, "No user with that Username."},
		{"wrong password", models.LoginRequest{Username: "alice", Password: "nope123"}, ErrWrongPassword, "Password or username is incorrect."},
		{"unconfirmed", models.LoginRequest{Username: "unconfirmed", Password: "secret1"}, ErrNotConfirmed, "Account is not confirmed. Please confirm your account."},
		{"inactive", models.LoginRequest{Username: "inactive", Password: "secret1"}, ErrInactive, "Account is not active. Please contact admin."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantText, UserMessage(err))
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, models.LoginRequest{})
		assert.Equal(t, []string{"Username must be specified.", "Password must be specified."}, fieldMessages(t, err))
	})

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Username)
		assert.Equal(t, "todo-service", resp.Issuer)
		assert.Greater(t, resp.Expires, resp.IssuedAt)

		claims, err := svc.tokens.Verify(resp.Token)
		require.NoError(t, err)
		id, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, alice.ID, id)
		assert.Equal(t, resp.Subject, claims.Subject)
	})
}

func TestAuthenticate(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	alice := register(t, svc, "alice")
	login, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	t.Run("invalid token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deactivated after login", func(t *testing.T) {
		db.MustExec("UPDATE users SET status = 0 WHERE id = ?", alice.ID)
		_, err := svc.Authenticate(ctx, login.Token)
		assert.ErrorIs(t, err, ErrInactive)
	})

	t.Run("user removed after login", func(t *testing.T) {
		db.MustExec("DELETE FROM users WHERE id = ?", alice.ID)
		_, err := svc.Authenticate(ctx, login.Token)
		assert.ErrorIs(t, err, ErrUnknownUser)
	})
}

func TestAuthenticateCachesUser(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	backend, err := utilcache.New(utilcache.Config{Type: "memory"})
	require.NoError(t, err)
	tokens := NewTokenIssuer("secret", "todo-service", 15*time.Minute)
	svc := NewService(store.NewUserStore(db, bcrypt.MinCost), tokens, cache.NewStore(backend))

	alice := register(t, svc, "alice")
	login, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.True(t, backend.Exists(cache.UserKey(alice.ID)))

	// the cached copy answers until it is evicted
	db.MustExec("UPDATE users SET status = 0 WHERE id = ?", alice.ID)
	user, err = svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	require.NoError(t, backend.Delete(cache.UserKey(alice.ID)))
	_, err = svc.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, ErrInactive)
}
