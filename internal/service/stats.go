// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"time"

	"github.com/olegiv/erms-go/internal/store"
	"github.com/olegiv/erms-go/internal/util"
)

// UnspecifiedCollege labels the bucket of participants without a
// college value.
const UnspecifiedCollege = "unspecified"

// StatsService aggregates registration and check-in numbers for the
// dashboard, globally or scoped to one event.
type StatsService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *sql.DB, logger *slog.Logger) *StatsService {
	return &StatsService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
	}
}

// Totals holds overall counts plus the derived check-in rate.
type Totals struct {
	Total     int64   `json:"total"`
	CheckedIn int64   `json:"checked_in"`
	Pending   int64   `json:"pending"`
	Rate      float64 `json:"rate"`
}

// CollegeCount holds counts for one college bucket.
type CollegeCount struct {
	College   string `json:"college"`
	Total     int64  `json:"total"`
	CheckedIn int64  `json:"checked_in"`
}

// EventCount holds counts for one event.
type EventCount struct {
	EventID   int64  `json:"event_id"`
	EventName string `json:"event_name"`
	Total     int64  `json:"total"`
	CheckedIn int64  `json:"checked_in"`
}

// rate returns checked/total as a percentage rounded to one decimal.
// Zero total yields zero, never a division error.
func rate(checked, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(checked)/float64(total)*1000) / 10
}

// Totals returns overall counts and the check-in rate, scoped to one
// event when eventID is non-nil.
func (s *StatsService) Totals(ctx context.Context, eventID *int64) (Totals, error) {
	row, err := s.queries.GetParticipantTotals(ctx, util.NullInt64FromPtr(eventID))
	if err != nil {
		return Totals{}, storageErr("loading totals", err)
	}
	return Totals{
		Total:     row.Total,
		CheckedIn: row.CheckedIn,
		Pending:   row.Total - row.CheckedIn,
		Rate:      rate(row.CheckedIn, row.Total),
	}, nil
}

// Colleges returns per-college counts, largest bucket first.
// Participants without a college land in the "unspecified" bucket.
func (s *StatsService) Colleges(ctx context.Context, eventID *int64) ([]CollegeCount, error) {
	rows, err := s.queries.GetCollegeStats(ctx, util.NullInt64FromPtr(eventID))
	if err != nil {
		return nil, storageErr("loading college stats", err)
	}

	out := make([]CollegeCount, 0, len(rows))
	for _, r := range rows {
		name := UnspecifiedCollege
		if r.College.Valid {
			name = r.College.String
		}
		out = append(out, CollegeCount{College: name, Total: r.Total, CheckedIn: r.CheckedIn})
	}
	return out, nil
}

// Events returns per-event counts. Events with no participants appear
// with zero counts.
func (s *StatsService) Events(ctx context.Context) ([]EventCount, error) {
	rows, err := s.queries.GetEventStats(ctx)
	if err != nil {
		return nil, storageErr("loading event stats", err)
	}

	out := make([]EventCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, EventCount{
			EventID:   r.EventID,
			EventName: r.EventName,
			Total:     r.Total,
			CheckedIn: r.CheckedIn,
		})
	}
	return out, nil
}

// Timeline buckets the day's check-ins by local hour. The result
// always has 24 entries, hour 0 through 23, zero-filled; check-ins on
// other calendar dates are excluded.
func (s *StatsService) Timeline(ctx context.Context, day time.Time, eventID *int64) ([24]int64, error) {
	var buckets [24]int64
	times, err := s.queries.ListCheckInTimes(ctx, util.NullInt64FromPtr(eventID))
	if err != nil {
		return buckets, storageErr("loading check-in times", err)
	}

	y, m, d := day.In(time.Local).Date()
	for _, t := range times {
		ty, tm, td := t.In(time.Local).Date()
		if ty != y || tm != m || td != d {
			continue
		}
		buckets[t.In(time.Local).Hour()]++
	}
	return buckets, nil
}
