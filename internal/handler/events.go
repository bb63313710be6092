// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/erms-go/internal/service"
	"github.com/olegiv/erms-go/internal/util"
)

// eventRequest is the JSON body for creating or updating an event.
type eventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD, optional
	Location    string `json:"location"`
}

func (req *eventRequest) toParams(w http.ResponseWriter) (service.EventParams, bool) {
	params := service.EventParams{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, "validation_error", "date must be YYYY-MM-DD")
			return params, false
		}
		params.Date = sql.NullTime{Time: d, Valid: true}
	}
	return params, true
}

// ListEvents returns all events, most recent first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, events)
}

// GetEvent returns one event.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ev, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, ev)
}

// CreateEvent creates an event owned by the acting user.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	params, ok := req.toParams(w)
	if !ok {
		return
	}

	ev, err := h.events.Create(r.Context(), params, util.NullInt64FromValue(actorID(r)))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteCreated(w, ev)
}

// UpdateEvent replaces an event's details.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	params, ok := req.toParams(w)
	if !ok {
		return
	}

	if err := h.events.Update(r.Context(), id, params); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	ev, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, ev)
}

// DeleteEvent removes an event with its participants and history.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.events.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEventParticipants returns all participants of one event.
func (h *Handler) ListEventParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if _, err := h.events.Get(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	list, err := h.participants.ListByEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, list)
}
