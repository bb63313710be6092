// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backup creates and restores point-in-time copies of the
// SQLite database file.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olegiv/erms-go/internal/model"
)

const filenameLayout = "20060102_150405"

// Info describes one backup file.
type Info struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// Manager copies the database file to a backup directory and back.
type Manager struct {
	db     *sql.DB
	dbPath string
	dir    string
	logger *slog.Logger
}

// NewManager creates a backup manager for the database at dbPath,
// writing backups into dir.
func NewManager(db *sql.DB, dbPath, dir string, logger *slog.Logger) *Manager {
	return &Manager{db: db, dbPath: dbPath, dir: dir, logger: logger}
}

// Create checkpoints the WAL so the main database file is complete,
// then copies it to a timestamped file in the backup directory.
func (m *Manager) Create(ctx context.Context) (Info, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return Info{}, fmt.Errorf("%w: database file: %v", model.ErrStorage, err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("creating backup directory: %w", err)
	}

	// Fold WAL pages into the main file so the copy is self-contained.
	if _, err := m.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return Info{}, fmt.Errorf("%w: checkpointing: %v", model.ErrStorage, err)
	}

	name := "backup_" + time.Now().Format(filenameLayout) + ".db"
	dst := filepath.Join(m.dir, name)
	if err := copyFile(m.dbPath, dst); err != nil {
		return Info{}, fmt.Errorf("copying database: %w", err)
	}

	fi, err := os.Stat(dst)
	if err != nil {
		return Info{}, fmt.Errorf("reading backup: %w", err)
	}

	m.logger.Info("backup created", "file", name, "size", fi.Size())
	return Info{Filename: name, Path: dst, CreatedAt: fi.ModTime(), Size: fi.Size()}, nil
}

// List returns available backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Filename:  e.Name(),
			Path:      filepath.Join(m.dir, e.Name()),
			CreatedAt: fi.ModTime(),
			Size:      fi.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Restore copies a backup file over the live database. The filename
// must name an existing file inside the backup directory; callers are
// expected to hold all writes while this runs.
func (m *Manager) Restore(filename string) error {
	if filepath.Base(filename) != filename {
		return fmt.Errorf("%w: invalid backup name %q", model.ErrValidation, filename)
	}
	src := filepath.Join(m.dir, filename)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: backup %q", model.ErrNotFound, filename)
	}

	// Drop stale WAL/SHM sidecars so the restored file is authoritative.
	_ = os.Remove(m.dbPath + "-wal")
	_ = os.Remove(m.dbPath + "-shm")

	if err := copyFile(src, m.dbPath); err != nil {
		return fmt.Errorf("restoring database: %w", err)
	}

	m.logger.Info("backup restored", "file", filename)
	return nil
}

// Prune deletes the oldest backups beyond keep. It returns how many
// files were removed.
func (m *Manager) Prune(keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("%w: retention must be at least 1", model.ErrValidation)
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil {
			m.logger.Warn("pruning backup failed", "file", b.Filename, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("backups pruned", "removed", removed, "kept", keep)
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
