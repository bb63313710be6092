// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Participant represents a registered event participant.
//
// CheckedIn and CheckInTime are a pair: CheckInTime is valid if and
// only if CheckedIn is true. Every mutation that touches either field
// must keep them paired.
type Participant struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Email        sql.NullString `json:"email,omitempty"`
	Phone        sql.NullString `json:"phone,omitempty"`
	College      sql.NullString `json:"college,omitempty"`
	GroupName    sql.NullString `json:"group_name,omitempty"`
	EventID      int64          `json:"event_id"`
	RegisteredAt time.Time      `json:"registered_at"`
	CheckedIn    bool           `json:"checked_in"`
	CheckInTime  sql.NullTime   `json:"check_in_time,omitempty"`
}

// HasPairedCheckIn reports whether the check-in flag and timestamp are
// consistent with each other.
func (p *Participant) HasPairedCheckIn() bool {
	return p.CheckedIn == p.CheckInTime.Valid
}

// ParticipantFields holds the insertable field-set for one participant.
// Used by Create and BulkCreate; optional fields are nullable so absent
// import columns stay NULL instead of becoming empty strings.
type ParticipantFields struct {
	Name      string
	Email     sql.NullString
	Phone     sql.NullString
	College   sql.NullString
	GroupName sql.NullString
	EventID   int64
}
