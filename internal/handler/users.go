// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/olegiv/erms-go/internal/service"
	"github.com/olegiv/erms-go/internal/util"
)

// loginRequest is the JSON body for authentication.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and returns the account with its
// permission tags. The returned id is what clients send back in the
// X-Actor-ID header.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// Hide the reason; both unknown user and bad password land here.
		WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	WriteSuccess(w, map[string]any{
		"user":        u,
		"permissions": u.Permissions(),
	})
}

// userRequest is the JSON body for creating an account.
type userRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	AssignedEventID *int64 `json:"assigned_event_id,omitempty"`
}

// ListUsers returns all accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, users)
}

// CreateUser adds an operator account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	u, err := h.users.Create(r.Context(), service.CreateUserParams{
		Username:        req.Username,
		Password:        req.Password,
		Role:            req.Role,
		AssignedEventID: util.NullInt64FromPtr(req.AssignedEventID),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteCreated(w, u)
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
