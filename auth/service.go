package auth

import (
	"context"
	"errors"
	"fmt"

	"todo-service/cache"
	"todo-service/models"
	"todo-service/store"
	"todo-service/validation"
)

var (
	ErrUnknownUser   = errors.New("unknown username")
	ErrWrongPassword = errors.New("wrong password")
	ErrNotConfirmed  = errors.New("account not confirmed")
	ErrInactive      = errors.New("account inactive")
)

// UserMessage returns the client-facing text for a login or token failure.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnknownUser):
		return "No user with that Username."
	case errors.Is(err, ErrWrongPassword):
		return "Password or username is incorrect."
	case errors.Is(err, ErrNotConfirmed):
		return "Account is not confirmed. Please confirm your account."
	case errors.Is(err, ErrInactive):
		return "Account is not active. Please contact admin."
	case errors.Is(err, ErrExpiredToken):
		return "Token has expired."
	case errors.Is(err, ErrMissingToken):
		return "Missing bearer token."
	default:
		return "Unauthorized."
	}
}

// CredentialStore is the user persistence the service needs.
type CredentialStore interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int) (models.User, error)
	VerifyPassword(user models.User, password string) bool
}

// Service registers users, logs them in and authenticates bearer tokens.
type Service struct {
	users  CredentialStore
	tokens *TokenIssuer
	cache  *cache.Store
}

func NewService(users CredentialStore, tokens *TokenIssuer, cache *cache.Store) *Service {
	return &Service{users: users, tokens: tokens, cache: cache}
}

// Register validates req and creates the user. Field problems, including an
// e-mail that is already registered, come back as validation.Errors.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.UserResponse, error) {
	var fieldErrs validation.Errors
	if err := validation.Struct(req); err != nil {
		if !errors.As(err, &fieldErrs) {
			return models.UserResponse{}, err
		}
	}

	if req.Email != "" {
		_, err := s.users.FindByEmail(ctx, req.Email)
		switch {
		case err == nil:
			fieldErrs = append(fieldErrs, validation.Field("email", req.Email, "E-mail already in use"))
		case !errors.Is(err, store.ErrNotFound):
			return models.UserResponse{}, fmt.Errorf("failed to check email: %w", err)
		}
	}

	if len(fieldErrs) > 0 {
		return models.UserResponse{}, fieldErrs
	}

	user, err := s.users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return models.UserResponse{}, validation.Errors{validation.Field("email", req.Email, "E-mail already in use")}
		}
		return models.UserResponse{}, err
	}
	return user.Response(), nil
}

// Login checks the credentials and account flags in order and issues a token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	if err := validation.Struct(req); err != nil {
		return models.LoginResponse{}, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.LoginResponse{}, ErrUnknownUser
		}
		return models.LoginResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	if !s.users.VerifyPassword(user, req.Password) {
		return models.LoginResponse{}, ErrWrongPassword
	}
	if !user.IsConfirmed {
		return models.LoginResponse{}, ErrNotConfirmed
	}
	if !user.Status {
		return models.LoginResponse{}, ErrInactive
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return models.LoginResponse{
		Username: user.Username,
		Token:    token,
		Issuer:   claims.Issuer,
		Subject:  claims.Subject,
		IssuedAt: claims.IssuedAt.Unix(),
		Expires:  claims.ExpiresAt.Unix(),
	}, nil
}

// Authenticate verifies a bearer token and resolves the user it was issued
// to. Tokens of users that no longer exist or were deactivated are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	if !s.cache.GetJSON(cache.UserKey(id), &user) {
		user, err = s.users.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.User{}, ErrUnknownUser
			}
			return models.User{}, fmt.Errorf("failed to load user: %w", err)
		}
		s.cache.SetJSON(cache.UserKey(id), user, cache.UserTTL)
	}

	if !user.Status {
		return models.User{}, ErrInactive
	}
	return user, nil
}
