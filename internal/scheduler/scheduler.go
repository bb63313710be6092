// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs, currently the
// nightly database backup with retention pruning.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/erms-go/internal/backup"
)

const jobTimeout = 5 * time.Minute

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	backups   *backup.Manager
	schedule  string
	retention int
	cron      *cron.Cron
	logger    *slog.Logger
}

// New creates a scheduler that runs a backup on the given cron
// schedule and keeps the newest retention files.
func New(backups *backup.Manager, schedule string, retention int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		backups:   backups,
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the backup job and begins the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runBackup)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule, "retention", s.retention)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// runBackup creates one backup and prunes old ones. Failures are
// logged, never fatal; the next tick tries again.
func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	info, err := s.backups.Create(ctx)
	if err != nil {
		s.logger.Error("scheduled backup failed", "error", err)
		return
	}
	s.logger.Info("scheduled backup complete", "file", info.Filename, "size", info.Size)

	if _, err := s.backups.Prune(s.retention); err != nil {
		s.logger.Error("backup pruning failed", "error", err)
	}
}
