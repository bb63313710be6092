// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package importer handles bulk participant registration from CSV
// uploads: header normalization, row validation with precise file
// positions, and all-or-nothing persistence.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/olegiv/erms-go/internal/model"
	"github.com/olegiv/erms-go/internal/util"
)

// Canonical column names after header normalization.
const (
	ColName      = "name"
	ColEmail     = "email"
	ColPhone     = "phone"
	ColCollege   = "college"
	ColGroupName = "group_name"
	ColEventID   = "event_id"
)

// BulkCreator persists a validated batch. Implemented by
// service.ParticipantService.
type BulkCreator interface {
	BulkCreate(ctx context.Context, list []model.ParticipantFields) (int, error)
}

// Row is one normalized import row keyed by canonical column name.
type Row map[string]string

// RowIssue points at one row of the uploaded file. FileRow is the
// 1-based position counting the header line, so the first data row is 2.
type RowIssue struct {
	FileRow int    `json:"file_row"`
	Message string `json:"message"`
}

// Report is the outcome of validating (and optionally applying) a batch.
type Report struct {
	BatchID  string     `json:"batch_id"`
	Rows     int        `json:"rows"`
	Inserted int        `json:"inserted"`
	Errors   []RowIssue `json:"errors,omitempty"`
	Warnings []RowIssue `json:"warnings,omitempty"`
}

// OK reports whether the batch passed validation. Warnings do not
// block an import.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Importer validates and applies participant batches.
type Importer struct {
	participants BulkCreator
	logger       *slog.Logger
}

// New creates an Importer.
func New(participants BulkCreator, logger *slog.Logger) *Importer {
	return &Importer{participants: participants, logger: logger}
}

// foldHeader normalizes a column header: accents stripped, lowered,
// runs of spaces and punctuation collapsed to single underscores.
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(t, s)

	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// canonicalColumn maps a folded header to its canonical column name,
// or "" for an unrecognized column. Any header mentioning both "event"
// and "id" counts as the event column, so "Event-ID", "event id" and
// "EventID" all land on event_id.
func canonicalColumn(folded string) string {
	switch folded {
	case ColName, "participant_name", "full_name":
		return ColName
	case ColEmail, "email_address", "e_mail":
		return ColEmail
	case ColPhone, "phone_number", "mobile", "contact":
		return ColPhone
	case ColCollege, "institution", "organisation", "organization":
		return ColCollege
	case ColGroupName, "group", "team", "team_name":
		return ColGroupName
	}
	if strings.Contains(folded, "event") && strings.Contains(folded, "id") {
		return ColEventID
	}
	if folded == "eventid" {
		return ColEventID
	}
	return ""
}

// ReadCSV parses an uploaded CSV into normalized rows. A UTF-8 BOM on
// the header is tolerated; unrecognized columns are ignored. Absent
// optional columns simply stay missing and later persist as NULL.
func ReadCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", model.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", model.ErrValidation, err)
	}

	columns := make([]string, len(header))
	seen := false
	for i, h := range header {
		columns[i] = canonicalColumn(foldHeader(h))
		if columns[i] != "" {
			seen = true
		}
	}
	if !seen {
		return nil, fmt.Errorf("%w: no recognized columns in header", model.ErrValidation)
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading row %d: %v", model.ErrValidation, len(rows)+2, err)
		}

		row := Row{}
		for i, v := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			row[columns[i]] = strings.TrimSpace(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// digitsOnly reports whether s is non-empty and all digits.
func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fileRow converts a 0-based data index to the file position usually
// shown by spreadsheet tools.
func fileRow(i int) int { return i + 2 }

// Validate checks every row against the known event ids. Missing name
// or a missing/unknown/non-integer event id is a hard error that fails
// the batch; malformed email or phone only warns.
func (imp *Importer) Validate(rows []Row, eventIDs []int64) *Report {
	report := &Report{
		BatchID: uuid.New().String(),
		Rows:    len(rows),
	}

	known := make(map[int64]bool, len(eventIDs))
	for _, id := range eventIDs {
		known[id] = true
	}
	validList := formatIDList(eventIDs)

	for i, row := range rows {
		if row[ColName] == "" {
			report.Errors = append(report.Errors, RowIssue{
				FileRow: fileRow(i),
				Message: "missing name",
			})
		}

		switch raw := row[ColEventID]; {
		case raw == "":
			report.Errors = append(report.Errors, RowIssue{
				FileRow: fileRow(i),
				Message: "missing event id; valid ids: " + validList,
			})
		default:
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				report.Errors = append(report.Errors, RowIssue{
					FileRow: fileRow(i),
					Message: fmt.Sprintf("event id %q is not an integer", raw),
				})
			} else if !known[id] {
				report.Errors = append(report.Errors, RowIssue{
					FileRow: fileRow(i),
					Message: fmt.Sprintf("unknown event id %d; valid ids: %s", id, validList),
				})
			}
		}

		if email := row[ColEmail]; email != "" && (!strings.Contains(email, "@") || !strings.Contains(email, ".")) {
			report.Warnings = append(report.Warnings, RowIssue{
				FileRow: fileRow(i),
				Message: fmt.Sprintf("email %q looks malformed", email),
			})
		}
		if phone := row[ColPhone]; phone != "" && (!digitsOnly(phone) || len(phone) < 10) {
			report.Warnings = append(report.Warnings, RowIssue{
				FileRow: fileRow(i),
				Message: fmt.Sprintf("phone %q looks malformed", phone),
			})
		}
	}
	return report
}

// Apply validates the batch and, when clean, persists every row in one
// transaction. A failed validation leaves the database untouched and
// returns the report with ok=false semantics via Report.OK.
func (imp *Importer) Apply(ctx context.Context, rows []Row, eventIDs []int64) (*Report, error) {
	report := imp.Validate(rows, eventIDs)
	if !report.OK() {
		return report, fmt.Errorf("%w: %d invalid rows", model.ErrValidation, len(report.Errors))
	}

	fields := make([]model.ParticipantFields, 0, len(rows))
	for _, row := range rows {
		eventID, err := strconv.ParseInt(row[ColEventID], 10, 64)
		if err != nil {
			return report, fmt.Errorf("%w: event id %q", model.ErrValidation, row[ColEventID])
		}
		fields = append(fields, model.ParticipantFields{
			Name:      row[ColName],
			Email:     util.NullStringFromValue(row[ColEmail]),
			Phone:     util.NullStringFromValue(row[ColPhone]),
			College:   util.NullStringFromValue(row[ColCollege]),
			GroupName: util.NullStringFromValue(row[ColGroupName]),
			EventID:   eventID,
		})
	}

	n, err := imp.participants.BulkCreate(ctx, fields)
	if err != nil {
		return report, err
	}
	report.Inserted = n

	imp.logger.Info("import applied", "batch_id", report.BatchID, "rows", n, "warnings", len(report.Warnings))
	return report, nil
}

func formatIDList(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
