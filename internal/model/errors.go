// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "errors"

// Base errors forming the failure taxonomy. Rich messages wrap one of
// these sentinels with fmt.Errorf("...: %w", ...) and callers match
// with errors.Is.
var (
	// ErrValidation marks malformed or missing required input. Raised
	// before any persistence attempt.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an operation targeting a nonexistent record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a unique-constraint violation, e.g. duplicate
	// username.
	ErrConflict = errors.New("conflict")

	// ErrIntegrity marks an import batch containing invalid rows; the
	// whole batch is rejected.
	ErrIntegrity = errors.New("integrity violation")

	// ErrStorage marks an underlying persistence failure. Fatal to the
	// current operation, surfaced verbatim, never retried.
	ErrStorage = errors.New("storage failure")
)
