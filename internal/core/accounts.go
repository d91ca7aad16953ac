package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seckatie/snapmark/internal/core/db"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordMismatch is returned when the password confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Accounts registers users and verifies their credentials.
type Accounts struct {
	db   *db.DB
	cost int
	log  logrus.FieldLogger
}

func NewAccounts(database *db.DB, logger logrus.FieldLogger) *Accounts {
	return &Accounts{
		db:   database,
		cost: bcrypt.DefaultCost,
		log:  logger.WithField("component", "accounts"),
	}
}

// Register creates a user. Duplicate usernames yield db.ErrUsernameTaken.
func (a *Accounts) Register(ctx context.Context, username, password, confirm string) (db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return db.User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if password != confirm {
		return db.User{}, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return db.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := a.db.CreateUser(ctx, username, string(hash))
	if err != nil {
		return db.User{}, err
	}
	a.log.WithField("username", username).Info("User registered")
	return u, nil
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (db.User, error) {
	u, err := a.db.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return db.User{}, ErrInvalidCredentials
		}
		return db.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return db.User{}, ErrInvalidCredentials
	}
	return u, nil
}
