// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic of the registration
// system: participant lifecycle with its audit trail, event management
// with cascading deletes, staff accounts and derived statistics.
package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/olegiv/erms-go/internal/model"
	"github.com/olegiv/erms-go/internal/store"
)

// storageErr tags an underlying persistence failure with the storage
// sentinel while preserving the original error chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorage, err)
}

// inTx runs fn against a transaction-bound query set. The transaction
// commits only when fn returns nil; any error rolls back every change.
func inTx(ctx context.Context, db *sql.DB, queries *store.Queries, fn func(q *store.Queries) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing transaction", err)
	}
	return nil
}
