package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/knowbase/knowbase/internal/capability"
)

// AuthStore implements capability.Authenticator: users are looked up
// by username and created on first contact.
type AuthStore struct {
	db *DB
}

var _ capability.Authenticator = (*AuthStore)(nil)

// NewAuthStore creates the auth adapter over the shared database.
func NewAuthStore(db *DB) *AuthStore {
	return &AuthStore{db: db}
}

// Auth resolves a username to a user id, registering new users.
func (a *AuthStore) Auth(ctx context.Context, req capability.AuthRequest) (capability.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return capability.AuthResponse{Status: capability.StatusError, Error: "USERNAME_REQUIRED"}, nil
	}

	var userID string
	err := a.db.sql.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, username,
	).Scan(&userID)
	if err == nil {
		return capability.AuthResponse{
			Status: capability.StatusSuccess,
			Data:   &capability.AuthData{UserID: userID, IsNewUser: false},
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return capability.AuthResponse{Status: capability.StatusError, Error: "QUERY_FAILED: " + err.Error()}, nil
	}

	userID = "usr_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	if _, err := a.db.sql.ExecContext(ctx,
		`INSERT INTO users (id, username) VALUES (?, ?)`, userID, username,
	); err != nil {
		return capability.AuthResponse{Status: capability.StatusError, Error: "USER_CREATION_FAILED: " + err.Error()}, nil
	}

	a.db.log.Info().Str("userId", userID).Str("username", username).Msg("registered new user")
	return capability.AuthResponse{
		Status: capability.StatusSuccess,
		Data:   &capability.AuthData{UserID: userID, IsNewUser: true},
	}, nil
}
