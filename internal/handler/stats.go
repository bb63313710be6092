// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"
)

// StatsTotals returns overall counts and the check-in rate.
func (h *Handler) StatsTotals(w http.ResponseWriter, r *http.Request) {
	eventID, ok := optionalEventID(w, r)
	if !ok {
		return
	}
	totals, err := h.stats.Totals(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, totals)
}

// StatsColleges returns the per-college breakdown.
func (h *Handler) StatsColleges(w http.ResponseWriter, r *http.Request) {
	eventID, ok := optionalEventID(w, r)
	if !ok {
		return
	}
	colleges, err := h.stats.Colleges(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, colleges)
}

// StatsEvents returns the per-event breakdown.
func (h *Handler) StatsEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.stats.Events(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, events)
}

// StatsTimeline returns 24 hourly check-in buckets for one calendar
// date, today when the date parameter is absent.
func (h *Handler) StatsTimeline(w http.ResponseWriter, r *http.Request) {
	eventID, ok := optionalEventID(w, r)
	if !ok {
		return
	}
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, "validation_error", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	buckets, err := h.stats.Timeline(r.Context(), day, eventID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, buckets)
}
