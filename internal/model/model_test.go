// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"testing"
	"time"
)

func TestUserPermissions(t *testing.T) {
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{RoleAdmin, PermManageUsers, true},
		{RoleAdmin, PermManageRegistration, true},
		{RoleDataManager, PermUploadData, true},
		{RoleDataManager, PermManageEvents, false},
		{RoleRegistration, PermManageRegistration, true},
		{RoleRegistration, PermUploadData, false},
		{RoleViewer, PermViewDashboard, true},
		{RoleViewer, PermManageUsers, false},
		{"bogus", PermViewDashboard, false},
	}

	for _, tt := range tests {
		u := &User{Role: tt.role}
		if got := u.HasPermission(tt.perm); got != tt.want {
			t.Errorf("HasPermission(%q) for role %q = %v, want %v", tt.perm, tt.role, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleDataManager, RoleRegistration, RoleViewer} {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false, want true", role)
		}
	}
	if IsValidRole("superuser") {
		t.Error("IsValidRole(\"superuser\") = true, want false")
	}
}

func TestHasPairedCheckIn(t *testing.T) {
	p := &Participant{CheckedIn: false}
	if !p.HasPairedCheckIn() {
		t.Error("not checked in without timestamp should be paired")
	}

	p.CheckedIn = true
	if p.HasPairedCheckIn() {
		t.Error("checked in without timestamp should be unpaired")
	}

	p.CheckInTime = sql.NullTime{Time: time.Now(), Valid: true}
	if !p.HasPairedCheckIn() {
		t.Error("checked in with timestamp should be paired")
	}

	p.CheckedIn = false
	if p.HasPairedCheckIn() {
		t.Error("not checked in with timestamp should be unpaired")
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"empty string", "", ""},
		{"bool true", true, "1"},
		{"bool false", false, "0"},
		{"int", 42, "42"},
		{"int64", int64(7), "7"},
		{"valid null string", sql.NullString{String: "x", Valid: true}, "x"},
		{"invalid null string", sql.NullString{}, ""},
		{"valid null int64", sql.NullInt64{Int64: 12, Valid: true}, "12"},
		{"invalid null int64", sql.NullInt64{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Booleans and their textual forms must canonicalize identically so a
// checked_in flag compared against a stored "1" never diffs.
func TestCanonicalBoolMatchesStoredText(t *testing.T) {
	if Canonical(true) != Canonical("1") {
		t.Error("Canonical(true) should equal Canonical(\"1\")")
	}
	if Canonical(false) != Canonical("0") {
		t.Error("Canonical(false) should equal Canonical(\"0\")")
	}
}
