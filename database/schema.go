package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		is_confirmed BOOLEAN NOT NULL DEFAULT 0,
		status BOOLEAN NOT NULL DEFAULT 1,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		estimated_time REAL NOT NULL DEFAULT 0,
		user_id INTEGER NOT NULL REFERENCES users(id),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, task)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL,
		estimated_time REAL NOT NULL DEFAULT 0,
		todo_id INTEGER NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tasks_todo_task_unique ON tasks (todo_id, task) WHERE task <> ''`,
	`CREATE INDEX IF NOT EXISTS tasks_todo_id ON tasks (todo_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		is_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		status BOOLEAN NOT NULL DEFAULT TRUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id SERIAL PRIMARY KEY,
		task TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		estimated_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		user_id INTEGER NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, task)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		task TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL,
		estimated_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		todo_id INTEGER NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tasks_todo_task_unique ON tasks (todo_id, task) WHERE task <> ''`,
	`CREATE INDEX IF NOT EXISTS tasks_todo_id ON tasks (todo_id)`,
}

// ApplySchema creates the users, todos and tasks tables if they do not exist.
// Statements are idempotent so it is safe to run on every start.
func ApplySchema(db *sqlx.DB) error {
	statements := sqliteSchema
	if db.DriverName() == "postgres" {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
