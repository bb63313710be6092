package model

import (
	"database/sql"
	"time"
)

// Event represents a registration event.
type Event struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Date        sql.NullTime  `json:"date,omitempty"`
	Location    string        `json:"location"`
	CreatedBy   sql.NullInt64 `json:"created_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
