// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/erms-go/internal/auth"
	"github.com/olegiv/erms-go/internal/model"
	"github.com/olegiv/erms-go/internal/store"
)

// UserService manages the operator accounts that drive registration
// and check-in. Passwords are stored as argon2id hashes only.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, logger *slog.Logger) *UserService {
	return &UserService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
	}
}

// CreateUserParams holds the fields for a new operator account.
type CreateUserParams struct {
	Username        string
	Password        string
	Role            string
	AssignedEventID sql.NullInt64
}

// Create adds a new account. Usernames are unique; a duplicate fails
// with ErrConflict.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (model.User, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return model.User{}, fmt.Errorf("%w: username is required", model.ErrValidation)
	}
	if params.Password == "" {
		return model.User{}, fmt.Errorf("%w: password is required", model.ErrValidation)
	}
	if !model.IsValidRole(params.Role) {
		return model.User{}, fmt.Errorf("%w: unknown role %q", model.ErrValidation, params.Role)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	u, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Username:        username,
		PasswordHash:    hash,
		Role:            params.Role,
		AssignedEventID: params.AssignedEventID,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.User{}, fmt.Errorf("%w: username %q already exists", model.ErrConflict, username)
		}
		return model.User{}, storageErr("creating user", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// Authenticate verifies the credentials, stamps last_login on success
// and transparently re-hashes passwords stored with stale parameters.
// Unknown usernames and wrong passwords both report ErrValidation so
// the caller cannot distinguish them.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	u, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("%w: invalid credentials", model.ErrValidation)
		}
		return model.User{}, storageErr("loading user", err)
	}

	ok, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return model.User{}, fmt.Errorf("%w: invalid credentials", model.ErrValidation)
	}

	now := time.Now()
	if err := s.queries.UpdateUserLastLogin(ctx, u.ID, now); err != nil {
		return model.User{}, storageErr("stamping last login", err)
	}
	u.LastLogin = sql.NullTime{Time: now, Valid: true}

	if auth.NeedsRehash(u.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateUserPassword(ctx, u.ID, hash); err != nil {
				s.logger.Warn("password rehash failed", "user_id", u.ID, "error", err)
			} else {
				u.PasswordHash = hash
			}
		}
	}

	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	u, err := s.queries.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("%w: user %d", model.ErrNotFound, id)
		}
		return model.User{}, storageErr("loading user", err)
	}
	return u, nil
}

// List returns all accounts ordered by username.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	out, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, storageErr("listing users", err)
	}
	return out, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if _, err := s.queries.GetUser(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: user %d", model.ErrNotFound, id)
		}
		return storageErr("loading user", err)
	}
	if err := s.queries.DeleteUser(ctx, id); err != nil {
		return storageErr("deleting user", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account when the user table
// is empty. It is a no-op once any account exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	n, err := s.queries.CountUsers(ctx)
	if err != nil {
		return storageErr("counting users", err)
	}
	if n > 0 {
		return nil
	}

	_, err = s.Create(ctx, CreateUserParams{
		Username: username,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return err
	}

	s.logger.Info("bootstrap admin created", "username", username)
	return nil
}
