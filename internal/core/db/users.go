package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrUsernameTaken is returned when registering a username that already exists.
var ErrUsernameTaken = errors.New("username already exists")

// ------------------------------
// User methods
// ------------------------------

// CreateUser inserts a user with an already hashed password.
// Emits a UserCreatedEvent after successful insert.
func (db *DB) CreateUser(ctx context.Context, username string, passwordHash string) (User, error) {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	result, err := db.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username,
		passwordHash,
		createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	u := User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}
	db.emit(UserCreatedEvent{User: u})
	return u, nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (User, error) {
	return db.scanUser(db.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id))
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return db.scanUser(db.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username))
}

func (db *DB) scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("user %w", ErrNotFound)
		}
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
