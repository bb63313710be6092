// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/erms-go/internal/model"
)

const eventColumns = `id, name, description, date, location, created_by, created_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.Date,
		&e.Location,
		&e.CreatedBy,
		&e.CreatedAt,
	)
	return e, err
}

// CreateEventParams holds the fields for a new event row.
type CreateEventParams struct {
	Name        string
	Description string
	Date        sql.NullTime
	Location    string
	CreatedBy   sql.NullInt64
	CreatedAt   time.Time
}

// CreateEvent inserts a new event and returns the stored row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO events (name, description, date, location, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+eventColumns,
		arg.Name, arg.Description, arg.Date, arg.Location, arg.CreatedBy, arg.CreatedAt,
	)
	return scanEvent(row)
}

// GetEvent returns an event by id.
func (q *Queries) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

// ListEvents returns all events, most recent date first.
func (q *Queries) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListEventIDs returns the ids of all events.
func (q *Queries) ListEventIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateEventParams holds the editable fields of an event.
type UpdateEventParams struct {
	ID          int64
	Name        string
	Description string
	Date        sql.NullTime
	Location    string
}

// UpdateEvent updates an event's details.
func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE events SET name = ?, description = ?, date = ?, location = ?
		WHERE id = ?`,
		arg.Name, arg.Description, arg.Date, arg.Location, arg.ID,
	)
	return err
}

// DeleteEvent removes an event row. Callers must cascade participants
// and their audit entries first; see EventService.Delete.
func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}
