// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/erms-go/internal/model"
)

type fakeUsers struct {
	users map[int64]model.User
}

func (f *fakeUsers) Get(_ context.Context, id int64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("%w: user %d", model.ErrNotFound, id)
	}
	return u, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestActor(t *testing.T) {
	users := &fakeUsers{users: map[int64]model.User{
		7: {ID: 7, Username: "desk1", Role: model.RoleRegistration},
	}}

	var captured model.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Actor(users)(inner)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid actor", "7", http.StatusOK},
		{"unknown actor", "8", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"garbage header", "abc", http.StatusUnauthorized},
		{"non-positive id", "0", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(ActorHeader, tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if captured.Username != "desk1" {
		t.Errorf("actor in context = %+v", captured)
	}
}

func TestRequirePermission(t *testing.T) {
	h := RequirePermission(model.PermManageEvents)(okHandler())

	// Viewer cannot manage events, admin can.
	viewer := model.User{ID: 1, Role: model.RoleViewer}
	admin := model.User{ID: 2, Role: model.RoleAdmin}

	for _, tt := range []struct {
		name string
		user *model.User
		want int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"viewer forbidden", &viewer, http.StatusForbidden},
		{"admin allowed", &admin, http.StatusOK},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.user != nil {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeyActor, *tt.user))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
