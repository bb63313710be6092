// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"strconv"
	"time"
)

// Audit field tags. The field name column is a free string, not a
// closed enum; these constants cover the fields the services write.
const (
	AuditFieldName      = "name"
	AuditFieldEmail     = "email"
	AuditFieldPhone     = "phone"
	AuditFieldCollege   = "college"
	AuditFieldGroupName = "group_name"
	AuditFieldEventID   = "event_id"
	AuditFieldCheckedIn = "checked_in"
	AuditFieldPhoto     = "id_card_photo"
)

// Marker strings written for the photo field. Photo bytes never enter
// the audit log.
const (
	AuditPhotoCaptured = "Photo captured"
	AuditPhotoRemoved  = "Photo removed"
)

// AuditEntry is an immutable record of one field's old->new value
// change on a participant. Entries are append-only and removed only
// when their participant is deleted.
type AuditEntry struct {
	ID            int64          `json:"id"`
	ParticipantID int64          `json:"participant_id"`
	FieldName     string         `json:"field_name"`
	OldValue      sql.NullString `json:"old_value,omitempty"`
	NewValue      sql.NullString `json:"new_value,omitempty"`
	ModifiedBy    sql.NullInt64  `json:"modified_by,omitempty"`
	ModifiedAt    time.Time      `json:"modified_at"`
}

// Canonical converts a value to its single text representation used
// for audit diffing, so type differences alone (bool vs "1") never
// produce spurious entries.
func Canonical(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case sql.NullString:
		if !val.Valid {
			return ""
		}
		return val.String
	case sql.NullInt64:
		if !val.Valid {
			return ""
		}
		return strconv.FormatInt(val.Int64, 10)
	default:
		return ""
	}
}
