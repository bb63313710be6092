// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for actor resolution and
// permission checks.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/olegiv/erms-go/internal/model"
)

// ContextKey is the type for context keys used by this package.
type ContextKey string

// ContextKeyActor is the context key carrying the authenticated user.
const ContextKeyActor ContextKey = "actor"

// ActorHeader names the header carrying the acting user's id.
const ActorHeader = "X-Actor-ID"

// UserLoader resolves a user id to a full account record.
type UserLoader interface {
	Get(ctx context.Context, id int64) (model.User, error)
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// Actor resolves the acting user from the X-Actor-ID header and stores
// the account in the request context. Requests without a valid actor
// are rejected; audit attribution depends on it.
func Actor(users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(ActorHeader)
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+ActorHeader+" header")
				return
			}

			user, err := users.Get(r.Context(), id)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unknown actor")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyActor, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the authenticated user, if any.
func ActorFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(ContextKeyActor).(model.User)
	return user, ok
}

// RequirePermission rejects requests whose actor lacks the permission.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "no actor in context")
				return
			}
			if !user.HasPermission(perm) {
				writeError(w, http.StatusForbidden, "forbidden", "role "+user.Role+" lacks "+perm)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
