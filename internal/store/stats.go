// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// TotalsRow holds overall participant counts, optionally event-scoped.
type TotalsRow struct {
	Total     int64
	CheckedIn int64
}

// GetParticipantTotals returns total and checked-in counts, scoped to
// one event when eventID is valid.
func (q *Queries) GetParticipantTotals(ctx context.Context, eventID sql.NullInt64) (TotalsRow, error) {
	var r TotalsRow
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(checked_in), 0)
		FROM participants
		WHERE (?1 IS NULL OR event_id = ?1)`,
		eventID,
	).Scan(&r.Total, &r.CheckedIn)
	return r, err
}

// CollegeStatsRow holds counts for one college bucket. College is NULL
// for participants without one.
type CollegeStatsRow struct {
	College   sql.NullString
	Total     int64
	CheckedIn int64
}

// GetCollegeStats groups participant counts by college, largest bucket
// first, scoped to one event when eventID is valid.
func (q *Queries) GetCollegeStats(ctx context.Context, eventID sql.NullInt64) ([]CollegeStatsRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT college, COUNT(*) AS total, COALESCE(SUM(checked_in), 0)
		FROM participants
		WHERE (?1 IS NULL OR event_id = ?1)
		GROUP BY college
		ORDER BY total DESC`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []CollegeStatsRow
	for rows.Next() {
		var r CollegeStatsRow
		if err := rows.Scan(&r.College, &r.Total, &r.CheckedIn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventStatsRow holds counts for one event. Events with no
// participants appear with zero counts.
type EventStatsRow struct {
	EventID   int64
	EventName string
	Total     int64
	CheckedIn int64
}

// GetEventStats groups participant counts by event via LEFT JOIN so
// empty events still appear, largest event first.
func (q *Queries) GetEventStats(ctx context.Context) ([]EventStatsRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT e.id, e.name, COUNT(p.id) AS total, COALESCE(SUM(p.checked_in), 0)
		FROM events e
		LEFT JOIN participants p ON e.id = p.event_id
		GROUP BY e.id, e.name
		ORDER BY total DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []EventStatsRow
	for rows.Next() {
		var r EventStatsRow
		if err := rows.Scan(&r.EventID, &r.EventName, &r.Total, &r.CheckedIn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListCheckInTimes returns the check-in timestamps of all checked-in
// participants, scoped to one event when eventID is valid. Hour
// bucketing happens in the service so timestamps keep their timezone.
func (q *Queries) ListCheckInTimes(ctx context.Context, eventID sql.NullInt64) ([]time.Time, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT check_in_time
		FROM participants
		WHERE checked_in = 1 AND check_in_time IS NOT NULL
		AND (?1 IS NULL OR event_id = ?1)`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
