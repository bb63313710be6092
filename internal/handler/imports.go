// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/olegiv/erms-go/internal/importer"
	"github.com/olegiv/erms-go/internal/model"
)

// maxImportUpload bounds the accepted CSV size.
const maxImportUpload = 20 << 20 // 20 MB

// readImportRows pulls the uploaded "file" part and parses it into
// normalized rows. Writes the error response itself on failure.
func (h *Handler) readImportRows(w http.ResponseWriter, r *http.Request) ([]importer.Row, bool) {
	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "expected multipart form with a file part")
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "missing file part")
		return nil, false
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	rows, err := importer.ReadCSV(file)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return nil, false
	}
	return rows, true
}

// ValidateImport dry-runs an uploaded CSV, returning the issue report
// without writing anything.
func (h *Handler) ValidateImport(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readImportRows(w, r)
	if !ok {
		return
	}
	ids, err := h.events.ListIDs(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, h.importer.Validate(rows, ids))
}

// ApplyImport validates and persists an uploaded CSV in one
// transaction. A batch with any hard error is rejected whole; the
// report is returned either way.
func (h *Handler) ApplyImport(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readImportRows(w, r)
	if !ok {
		return
	}
	ids, err := h.events.ListIDs(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	report, err := h.importer.Apply(r.Context(), rows, ids)
	if err != nil {
		if errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrIntegrity) {
			WriteJSON(w, http.StatusUnprocessableEntity, Response{Data: report})
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}
	WriteCreated(w, report)
}
