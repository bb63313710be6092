// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"ERMS_DB_PATH" envDefault:"./data/erms.db"`
	ServerHost string `env:"ERMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"ERMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"ERMS_ENV" envDefault:"development"`
	LogLevel   string `env:"ERMS_LOG_LEVEL" envDefault:"info"`

	// Backup configuration
	BackupDir       string `env:"ERMS_BACKUP_DIR" envDefault:"./data/backups"`
	BackupSchedule  string `env:"ERMS_BACKUP_SCHEDULE" envDefault:"0 3 * * *"` // Cron expression; empty disables scheduled backups
	BackupRetention int    `env:"ERMS_BACKUP_RETENTION" envDefault:"14"`       // Backups to keep when pruning

	// ID card photo processing limits
	PhotoMaxWidth  int `env:"ERMS_PHOTO_MAX_WIDTH" envDefault:"1280"`
	PhotoMaxHeight int `env:"ERMS_PHOTO_MAX_HEIGHT" envDefault:"1280"`

	// Bootstrap admin created on first start when no users exist
	AdminUsername string `env:"ERMS_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ERMS_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// BackupsEnabled returns true if scheduled backups are configured.
func (c Config) BackupsEnabled() bool {
	return c.BackupSchedule != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("ERMS_SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.BackupRetention < 1 {
		return nil, fmt.Errorf("ERMS_BACKUP_RETENTION must be at least 1, got %d", cfg.BackupRetention)
	}

	return cfg, nil
}
