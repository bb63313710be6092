// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/erms-go/internal/model"
)

const participantColumns = `id, name, email, phone, college, group_name, event_id, registered_at, checked_in, check_in_time`

// scanParticipant scans one participant row. The photo BLOB is not part
// of standard rows; use GetParticipantPhoto for it.
func scanParticipant(row interface{ Scan(...any) error }) (model.Participant, error) {
	var p model.Participant
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.College,
		&p.GroupName,
		&p.EventID,
		&p.RegisteredAt,
		&p.CheckedIn,
		&p.CheckInTime,
	)
	return p, err
}

// CreateParticipantParams holds the fields for a new participant row.
type CreateParticipantParams struct {
	Name         string
	Email        sql.NullString
	Phone        sql.NullString
	College      sql.NullString
	GroupName    sql.NullString
	EventID      int64
	RegisteredAt time.Time
}

// CreateParticipant inserts a new participant and returns the stored row.
func (q *Queries) CreateParticipant(ctx context.Context, arg CreateParticipantParams) (model.Participant, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO participants (name, email, phone, college, group_name, event_id, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+participantColumns,
		arg.Name, arg.Email, arg.Phone, arg.College, arg.GroupName, arg.EventID, arg.RegisteredAt,
	)
	return scanParticipant(row)
}

// GetParticipant returns a participant by id.
func (q *Queries) GetParticipant(ctx context.Context, id int64) (model.Participant, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = ?`, id)
	return scanParticipant(row)
}

// ListParticipantsByEvent returns all participants of one event ordered by name.
func (q *Queries) ListParticipantsByEvent(ctx context.Context, eventID int64) ([]model.Participant, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE event_id = ? ORDER BY name`, eventID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectParticipants(rows)
}

// ListParticipants returns all participants ordered by name.
func (q *Queries) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectParticipants(rows)
}

// SearchParticipantsParams holds a search term and optional event scope.
type SearchParticipantsParams struct {
	Term    string
	EventID sql.NullInt64
}

// SearchParticipants matches the term as a case-insensitive substring
// of name, email, phone, college or group name, optionally scoped to
// one event.
func (q *Queries) SearchParticipants(ctx context.Context, arg SearchParticipantsParams) ([]model.Participant, error) {
	pattern := "%" + arg.Term + "%"
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+participantColumns+` FROM participants
		WHERE (name LIKE ?1 OR email LIKE ?1 OR phone LIKE ?1 OR college LIKE ?1 OR group_name LIKE ?1)
		AND (?2 IS NULL OR event_id = ?2)
		ORDER BY name`,
		pattern, arg.EventID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectParticipants(rows)
}

// UpdateParticipantParams holds the five mutable contact fields.
type UpdateParticipantParams struct {
	ID        int64
	Name      string
	Email     sql.NullString
	Phone     sql.NullString
	College   sql.NullString
	GroupName sql.NullString
}

// UpdateParticipant updates the contact fields, leaving event and
// check-in state untouched.
func (q *Queries) UpdateParticipant(ctx context.Context, arg UpdateParticipantParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE participants
		SET name = ?, email = ?, phone = ?, college = ?, group_name = ?
		WHERE id = ?`,
		arg.Name, arg.Email, arg.Phone, arg.College, arg.GroupName, arg.ID,
	)
	return err
}

// UpdateParticipantFullParams holds every mutable field including the
// check-in pair, which the caller must keep consistent.
type UpdateParticipantFullParams struct {
	ID          int64
	Name        string
	Email       sql.NullString
	Phone       sql.NullString
	College     sql.NullString
	GroupName   sql.NullString
	EventID     int64
	CheckedIn   bool
	CheckInTime sql.NullTime
}

// UpdateParticipantFull updates all mutable fields in one statement.
func (q *Queries) UpdateParticipantFull(ctx context.Context, arg UpdateParticipantFullParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE participants
		SET name = ?, email = ?, phone = ?, college = ?, group_name = ?,
		    event_id = ?, checked_in = ?, check_in_time = ?
		WHERE id = ?`,
		arg.Name, arg.Email, arg.Phone, arg.College, arg.GroupName,
		arg.EventID, arg.CheckedIn, arg.CheckInTime, arg.ID,
	)
	return err
}

// CheckInParticipantParams marks a participant present. A nil Photo
// leaves any stored photo in place.
type CheckInParticipantParams struct {
	ID          int64
	CheckInTime time.Time
	Photo       []byte
}

// CheckInParticipant sets the checked-in flag and timestamp, storing
// the photo when one was captured.
func (q *Queries) CheckInParticipant(ctx context.Context, arg CheckInParticipantParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE participants
		SET checked_in = 1, check_in_time = ?, id_card_photo = COALESCE(?, id_card_photo)
		WHERE id = ?`,
		arg.CheckInTime, arg.Photo, arg.ID,
	)
	return err
}

// ClearCheckIn resets the check-in flag, timestamp and photo together.
func (q *Queries) ClearCheckIn(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE participants
		SET checked_in = 0, check_in_time = NULL, id_card_photo = NULL
		WHERE id = ?`, id)
	return err
}

// DeleteParticipant removes a participant row.
func (q *Queries) DeleteParticipant(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
	return err
}

// DeleteParticipantsByEvent removes all participants of one event.
func (q *Queries) DeleteParticipantsByEvent(ctx context.Context, eventID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM participants WHERE event_id = ?`, eventID)
	return err
}

// GetParticipantPhoto returns the stored ID card photo, or nil when no
// photo was captured.
func (q *Queries) GetParticipantPhoto(ctx context.Context, id int64) ([]byte, error) {
	var photo []byte
	err := q.db.QueryRowContext(ctx,
		`SELECT id_card_photo FROM participants WHERE id = ?`, id).Scan(&photo)
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func collectParticipants(rows *sql.Rows) ([]model.Participant, error) {
	var out []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
