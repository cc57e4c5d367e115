package store

import (
	"context"
	"fmt"
	"time"

	"todo-service/models"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = "id, username, email, is_confirmed, status, password_hash, created_at"

// UserStore persists user credentials.
type UserStore struct {
	db   *sqlx.DB
	cost int
	now  func() time.Time
}

// NewUserStore creates a user store hashing passwords with the given bcrypt cost.
func NewUserStore(db *sqlx.DB, cost int) *UserStore {
	return &UserStore{db: db, cost: cost, now: time.Now}
}

// Register stores a new confirmed and active user with a bcrypt-hashed password.
func (s *UserStore) Register(ctx context.Context, username, email, password string) (models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		IsConfirmed:  true, // no mail confirmation flow
		Status:       true,
		PasswordHash: string(hashed),
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	err = s.db.QueryRowxContext(ctx,
		s.db.Rebind("INSERT INTO users (username, email, is_confirmed, status, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id"),
		user.Username, user.Email, user.IsConfirmed, user.Status, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			if violates(err, "email") {
				return models.User{}, ErrDuplicateEmail
			}
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *UserStore) FindByID(ctx context.Context, id int) (models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

// VerifyPassword compares password against the stored hash in constant time.
func (s *UserStore) VerifyPassword(user models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (s *UserStore) findOne(ctx context.Context, where string, arg interface{}) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE "+where), arg)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}
