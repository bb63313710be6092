// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/erms-go/internal/model"
	"github.com/olegiv/erms-go/internal/store"
)

// EventService manages events and the cascade that keeps participant
// and audit rows consistent when an event goes away.
type EventService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	return &EventService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
	}
}

// EventParams holds the mutable fields of an event.
type EventParams struct {
	Name        string
	Description string
	Date        sql.NullTime
	Location    string
}

// Create adds a new event. The name is required.
func (s *EventService) Create(ctx context.Context, params EventParams, createdBy sql.NullInt64) (model.Event, error) {
	if strings.TrimSpace(params.Name) == "" {
		return model.Event{}, fmt.Errorf("%w: event name is required", model.ErrValidation)
	}

	ev, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Name:        strings.TrimSpace(params.Name),
		Description: params.Description,
		Date:        params.Date,
		Location:    params.Location,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return model.Event{}, storageErr("creating event", err)
	}

	s.logger.Info("event created", "event_id", ev.ID, "name", ev.Name)
	return ev, nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id int64) (model.Event, error) {
	ev, err := s.queries.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, fmt.Errorf("%w: event %d", model.ErrNotFound, id)
		}
		return model.Event{}, storageErr("loading event", err)
	}
	return ev, nil
}

// List returns all events, most recent date first.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	out, err := s.queries.ListEvents(ctx)
	if err != nil {
		return nil, storageErr("listing events", err)
	}
	return out, nil
}

// ListIDs returns the ids of all events.
func (s *EventService) ListIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.queries.ListEventIDs(ctx)
	if err != nil {
		return nil, storageErr("listing event ids", err)
	}
	return ids, nil
}

// Update replaces the mutable fields of an event.
func (s *EventService) Update(ctx context.Context, id int64, params EventParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return fmt.Errorf("%w: event name is required", model.ErrValidation)
	}

	if _, err := s.queries.GetEvent(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: event %d", model.ErrNotFound, id)
		}
		return storageErr("loading event", err)
	}

	if err := s.queries.UpdateEvent(ctx, store.UpdateEventParams{
		ID:          id,
		Name:        strings.TrimSpace(params.Name),
		Description: params.Description,
		Date:        params.Date,
		Location:    params.Location,
	}); err != nil {
		return storageErr("updating event", err)
	}
	return nil
}

// Delete removes an event together with its participants and their
// audit entries. The cascade runs in one transaction, grandchildren
// first, so the log never references rows that no longer exist.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		if _, err := q.GetEvent(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: event %d", model.ErrNotFound, id)
			}
			return storageErr("loading event", err)
		}

		if err := q.DeleteAuditByEvent(ctx, id); err != nil {
			return storageErr("deleting audit entries", err)
		}
		if err := q.DeleteParticipantsByEvent(ctx, id); err != nil {
			return storageErr("deleting participants", err)
		}
		if err := q.DeleteEvent(ctx, id); err != nil {
			return storageErr("deleting event", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("event deleted", "event_id", id)
	return nil
}
