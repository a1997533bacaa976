package store

import (
	"context"
	"log/slog"

	"github.com/sakif/flipit/internal/apperror"
	"github.com/sakif/flipit/internal/model"
)

// CreateUser registers username with an already hashed password.
//
// Usernames are matched exactly (case-sensitive). Returns an
// apperror.ErrConflict if the name is taken.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[username]; taken {
		return model.User{}, apperror.Conflict("Username already exists")
	}

	u := model.User{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: passwordHash,
	}
	s.users[u.ID] = u
	s.byUsername[username] = u.ID

	s.flushLocked(ctx, "create_user")
	s.logger.Debug("user stored", slog.String("userID", u.ID))
	return u, nil
}

// UserByUsername looks a user up by exact username.
func (s *Store) UserByUsername(username string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return model.User{}, false
	}
	return s.users[id], true
}

// UserExists reports whether userID belongs to a registered user.
// It satisfies auth.UserDirectory.
func (s *Store) UserExists(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[userID]
	return ok
}
