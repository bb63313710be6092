// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListBackups returns available backups, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, _ *http.Request) {
	backups, err := h.backups.List()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, backups)
}

// CreateBackup snapshots the database immediately.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.backups.Create(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteCreated(w, info)
}

// RestoreBackup replaces the live database with a named backup.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := h.backups.Restore(filename); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]any{"restored": filename})
}
