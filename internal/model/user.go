// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, Event, Participant and AuditEntry.
package model

import (
	"database/sql"
	"time"
)

// User roles
const (
	RoleAdmin        = "admin"
	RoleDataManager  = "data_manager"
	RoleRegistration = "registration"
	RoleViewer       = "viewer"
)

// Permission tags gating what the presentation layer may invoke.
const (
	PermManageUsers        = "manage_users"
	PermManageEvents       = "manage_events"
	PermViewDashboard      = "view_dashboard"
	PermUploadData         = "upload_data"
	PermManageRegistration = "manage_registration"
)

// rolePermissions maps each role to its granted permission tags.
var rolePermissions = map[string][]string{
	RoleAdmin:        {PermManageUsers, PermManageEvents, PermViewDashboard, PermUploadData, PermManageRegistration},
	RoleDataManager:  {PermUploadData, PermViewDashboard},
	RoleRegistration: {PermManageRegistration, PermViewDashboard},
	RoleViewer:       {PermViewDashboard},
}

// User represents a staff account.
type User struct {
	ID              int64         `json:"id"`
	Username        string        `json:"username"`
	PasswordHash    string        `json:"-"` // Never expose in JSON
	Role            string        `json:"role"`
	AssignedEventID sql.NullInt64 `json:"assigned_event_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	LastLogin       sql.NullTime  `json:"last_login,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Permissions returns the permission tags granted by the user's role.
func (u *User) Permissions() []string {
	return PermissionsForRole(u.Role)
}

// HasPermission returns true if the user's role grants the given permission tag.
func (u *User) HasPermission(perm string) bool {
	for _, p := range u.Permissions() {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns the permission tags for a role, or nil for
// an unknown role.
func PermissionsForRole(role string) []string {
	return rolePermissions[role]
}

// IsValidRole returns true if the role name is one of the known roles.
func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}
