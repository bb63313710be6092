// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/erms-go/internal/model"
)

// RecentAuditLimit caps unscoped history queries.
const RecentAuditLimit = 100

// CreateAuditEntryParams holds one field-level change record.
type CreateAuditEntryParams struct {
	ParticipantID int64
	FieldName     string
	OldValue      sql.NullString
	NewValue      sql.NullString
	ModifiedBy    sql.NullInt64
	ModifiedAt    time.Time
}

// CreateAuditEntry appends one entry to the audit log. Entries are
// never updated afterwards.
func (q *Queries) CreateAuditEntry(ctx context.Context, arg CreateAuditEntryParams) (model.AuditEntry, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (participant_id, field_name, old_value, new_value, modified_by, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, participant_id, field_name, old_value, new_value, modified_by, modified_at`,
		arg.ParticipantID, arg.FieldName, arg.OldValue, arg.NewValue, arg.ModifiedBy, arg.ModifiedAt,
	)
	var e model.AuditEntry
	err := row.Scan(&e.ID, &e.ParticipantID, &e.FieldName, &e.OldValue, &e.NewValue, &e.ModifiedBy, &e.ModifiedAt)
	return e, err
}

// AuditEntryRow is an audit entry joined with display names for the
// participant and the modifying user.
type AuditEntryRow struct {
	model.AuditEntry
	ParticipantName    string
	ModifiedByUsername sql.NullString
}

const auditRowQuery = `
	SELECT h.id, h.participant_id, h.field_name, h.old_value, h.new_value, h.modified_by, h.modified_at,
	       p.name, u.username
	FROM audit_log h
	JOIN participants p ON h.participant_id = p.id
	LEFT JOIN users u ON h.modified_by = u.id`

// ListAuditByParticipant returns the change history of one
// participant, newest first.
func (q *Queries) ListAuditByParticipant(ctx context.Context, participantID int64) ([]AuditEntryRow, error) {
	rows, err := q.db.QueryContext(ctx,
		auditRowQuery+` WHERE h.participant_id = ? ORDER BY h.modified_at DESC, h.id DESC`,
		participantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectAuditRows(rows)
}

// ListRecentAudit returns the most recent entries system-wide, newest
// first, capped at RecentAuditLimit.
func (q *Queries) ListRecentAudit(ctx context.Context) ([]AuditEntryRow, error) {
	rows, err := q.db.QueryContext(ctx,
		auditRowQuery+` ORDER BY h.modified_at DESC, h.id DESC LIMIT ?`,
		RecentAuditLimit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectAuditRows(rows)
}

// CountAuditByParticipant returns how many entries one participant has.
func (q *Queries) CountAuditByParticipant(ctx context.Context, participantID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE participant_id = ?`, participantID).Scan(&n)
	return n, err
}

// DeleteAuditByParticipant removes all entries of one participant.
// Only called as part of a participant delete cascade.
func (q *Queries) DeleteAuditByParticipant(ctx context.Context, participantID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM audit_log WHERE participant_id = ?`, participantID)
	return err
}

// DeleteAuditByEvent removes the entries of every participant of one
// event. Only called as part of an event delete cascade.
func (q *Queries) DeleteAuditByEvent(ctx context.Context, eventID int64) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM audit_log
		WHERE participant_id IN (SELECT id FROM participants WHERE event_id = ?)`, eventID)
	return err
}

func collectAuditRows(rows *sql.Rows) ([]AuditEntryRow, error) {
	var out []AuditEntryRow
	for rows.Next() {
		var r AuditEntryRow
		if err := rows.Scan(
			&r.ID, &r.ParticipantID, &r.FieldName, &r.OldValue, &r.NewValue,
			&r.ModifiedBy, &r.ModifiedAt, &r.ParticipantName, &r.ModifiedByUsername,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
