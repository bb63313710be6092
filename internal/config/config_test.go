// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "./data/erms.db" {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr = %q, want localhost:8080", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if !cfg.BackupsEnabled() {
		t.Error("backups should be enabled by default")
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("ERMS_SERVER_PORT", "99999")
	if _, err := Load(); err == nil {
		t.Error("port out of range should fail")
	}
}

func TestLoadInvalidRetention(t *testing.T) {
	t.Setenv("ERMS_BACKUP_RETENTION", "0")
	if _, err := Load(); err == nil {
		t.Error("zero retention should fail")
	}
}

func TestBackupsDisabled(t *testing.T) {
	t.Setenv("ERMS_BACKUP_SCHEDULE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackupsEnabled() {
		t.Error("empty schedule should disable backups")
	}
}
