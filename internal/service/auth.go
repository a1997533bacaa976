// Authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the store/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserStore (store.Store)
//	                   ↘ PasswordVerifier (bcrypt)
//	                   ↘ TokenScheme (user ID or JWT)
//
// KEY RESPONSIBILITIES:
//   - Validate credentials before anything is hashed or stored
//   - Hash on registration, verify on login, issue a bearer token for both
//   - Be easily testable with fake dependencies

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/flipit/internal/apperror"
	"github.com/sakif/flipit/internal/auth"
	"github.com/sakif/flipit/internal/model"
)

// MaxUsernameLength bounds registration input. Passwords are bounded by
// auth.MaxPasswordBytes.
const MaxUsernameLength = 64

// InvalidCredentialsMessage is returned for an unknown username and for a
// wrong password alike.
const InvalidCredentialsMessage = "Invalid username or password"

// UserStore is the slice of store.Store the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (model.User, error)
	UserByUsername(username string) (model.User, bool)
}

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      UserStore              → read/write user records
//   - tokens     auth.TokenScheme       → issue bearer tokens
//   - passwords  auth.PasswordVerifier  → bcrypt hashing
//   - logger     *slog.Logger           → structured logging
type AuthService struct {
	users     UserStore
	tokens    auth.TokenScheme
	passwords auth.PasswordVerifier
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users UserStore,
	tokens auth.TokenScheme,
	passwords auth.PasswordVerifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is returned by authentication operations.
// It bundles the user record and the issued token together so the handler
// can respond in one step.
type AuthResult struct {
	User  model.User
	Token string
}

// Register creates a new user and issues a token for it.
//
// Returns apperror.ErrValidation for a blank or oversized username or
// password, and apperror.ErrConflict if the username is taken.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or less", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		// Conflict is already an apperror; let it through untouched.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issue(user)
}

// Login verifies credentials and issues a token. It has no side effects on
// the store.
//
// An unknown username and a wrong password produce the same
// apperror.ErrUnauthorized, so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, ok := s.users.UserByUsername(username)
	if !ok {
		return nil, apperror.Unauthorized(InvalidCredentialsMessage)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Debug("login rejected",
			slog.String("userID", user.ID),
			slog.String("reason", err.Error()),
		)
		return nil, apperror.Unauthorized(InvalidCredentialsMessage)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

func (s *AuthService) issue(user model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
