// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/olegiv/erms-go/internal/model"
	"github.com/olegiv/erms-go/internal/service"
	"github.com/olegiv/erms-go/internal/util"
)

// maxPhotoUpload bounds the accepted photo size.
const maxPhotoUpload = 10 << 20 // 10 MB

// participantRequest is the JSON body for participant writes.
type participantRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	College   string `json:"college"`
	GroupName string `json:"group_name"`
	EventID   int64  `json:"event_id"`
	CheckedIn *bool  `json:"checked_in,omitempty"`
}

// CreateParticipant registers a single participant.
func (h *Handler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	p, err := h.participants.Create(r.Context(), model.ParticipantFields{
		Name:      req.Name,
		Email:     util.NullStringTrimmed(req.Email),
		Phone:     util.NullStringTrimmed(req.Phone),
		College:   util.NullStringTrimmed(req.College),
		GroupName: util.NullStringTrimmed(req.GroupName),
		EventID:   req.EventID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteCreated(w, p)
}

// GetParticipant returns one participant.
func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.participants.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, p)
}

// UpdateParticipant applies a field update. A body carrying checked_in
// or a new event_id takes the full update path; otherwise only the
// contact fields change. Every changed field lands in the history.
func (h *Handler) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	var err error
	if req.CheckedIn != nil || req.EventID != 0 {
		current, getErr := h.participants.Get(r.Context(), id)
		if getErr != nil {
			writeServiceError(w, h.logger, getErr)
			return
		}
		eventID := req.EventID
		if eventID == 0 {
			eventID = current.EventID
		}
		checkedIn := current.CheckedIn
		if req.CheckedIn != nil {
			checkedIn = *req.CheckedIn
		}
		err = h.participants.UpdateFull(r.Context(), id, service.UpdateFullParams{
			Name:      req.Name,
			Email:     util.NullStringTrimmed(req.Email),
			Phone:     util.NullStringTrimmed(req.Phone),
			College:   util.NullStringTrimmed(req.College),
			GroupName: util.NullStringTrimmed(req.GroupName),
			EventID:   eventID,
			CheckedIn: checkedIn,
		}, actorID(r))
	} else {
		err = h.participants.Update(r.Context(), id, service.UpdateParams{
			Name:      req.Name,
			Email:     util.NullStringTrimmed(req.Email),
			Phone:     util.NullStringTrimmed(req.Phone),
			College:   util.NullStringTrimmed(req.College),
			GroupName: util.NullStringTrimmed(req.GroupName),
		}, actorID(r))
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	p, err := h.participants.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, p)
}

// DeleteParticipant removes a participant and their history.
func (h *Handler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.participants.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckIn marks a participant present. An optional multipart "photo"
// part carries the ID card capture, which is normalized before
// storage. Already checked-in participants are reported as such
// without an error.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var photo []byte
	if err := r.ParseMultipartForm(maxPhotoUpload); err == nil {
		if file, _, ferr := r.FormFile("photo"); ferr == nil {
			defer func() { _ = file.Close() }()
			res, perr := h.photos.Process(io.LimitReader(file, maxPhotoUpload))
			if perr != nil {
				writeServiceError(w, h.logger, perr)
				return
			}
			photo = res.Data
		}
	} else if !errors.Is(err, http.ErrNotMultipart) {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid multipart body")
		return
	}

	done, err := h.participants.CheckIn(r.Context(), id, actorID(r), photo)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]any{"checked_in": true, "already_checked_in": !done})
}

// UndoCheckIn reverts a check-in, clearing any stored photo.
func (h *Handler) UndoCheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.participants.UndoCheckIn(r.Context(), id, actorID(r)); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]any{"checked_in": false})
}

// SearchParticipants matches the q parameter across contact fields,
// optionally scoped by event_id.
func (h *Handler) SearchParticipants(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		WriteError(w, http.StatusUnprocessableEntity, "validation_error", "q parameter is required")
		return
	}
	eventID, ok := optionalEventID(w, r)
	if !ok {
		return
	}

	list, err := h.participants.Search(r.Context(), term, eventID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, list)
}

// ParticipantHistory returns the full change history of one participant.
func (h *Handler) ParticipantHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if _, err := h.participants.Get(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	rows, err := h.participants.History(r.Context(), &id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, rows)
}

// RecentHistory returns the most recent changes system-wide.
func (h *Handler) RecentHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.participants.History(r.Context(), nil)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, rows)
}

// ParticipantPhoto serves the stored ID card photo as JPEG.
func (h *Handler) ParticipantPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	photo, err := h.participants.Photo(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if photo == nil {
		WriteError(w, http.StatusNotFound, "not_found", "no photo stored")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(photo)
}
