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
	"github.com/olegiv/erms-go/internal/util"
)

// ParticipantService is the single source of truth for participant
// records and their change history. Every mutation that touches a
// participant row together with audit rows runs in one transaction.
type ParticipantService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
}

// NewParticipantService creates a new ParticipantService.
func NewParticipantService(db *sql.DB, logger *slog.Logger) *ParticipantService {
	return &ParticipantService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
	}
}

// validateFields checks a participant field-set before any persistence
// attempt. The event must already exist.
func validateFields(ctx context.Context, q *store.Queries, f model.ParticipantFields) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if _, err := q.GetEvent(ctx, f.EventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: event %d does not exist", model.ErrValidation, f.EventID)
		}
		return storageErr("looking up event", err)
	}
	return nil
}

// Create registers a new participant, not checked in. Creation itself
// is not audited; history tracks only post-creation mutations.
func (s *ParticipantService) Create(ctx context.Context, fields model.ParticipantFields) (model.Participant, error) {
	if err := validateFields(ctx, s.queries, fields); err != nil {
		return model.Participant{}, err
	}

	p, err := s.queries.CreateParticipant(ctx, store.CreateParticipantParams{
		Name:         strings.TrimSpace(fields.Name),
		Email:        fields.Email,
		Phone:        fields.Phone,
		College:      fields.College,
		GroupName:    fields.GroupName,
		EventID:      fields.EventID,
		RegisteredAt: time.Now(),
	})
	if err != nil {
		return model.Participant{}, storageErr("creating participant", err)
	}

	s.logger.Info("participant registered", "participant_id", p.ID, "event_id", p.EventID)
	return p, nil
}

// BulkCreate inserts all field-sets in one all-or-nothing transaction.
// Any invalid row aborts the whole batch; the error names the 1-based
// position of the first failing row and nothing is persisted.
func (s *ParticipantService) BulkCreate(ctx context.Context, list []model.ParticipantFields) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}

	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		for i, fields := range list {
			if err := validateFields(ctx, q, fields); err != nil {
				return fmt.Errorf("%w: row %d: %w", model.ErrIntegrity, i+1, err)
			}
			_, err := q.CreateParticipant(ctx, store.CreateParticipantParams{
				Name:         strings.TrimSpace(fields.Name),
				Email:        fields.Email,
				Phone:        fields.Phone,
				College:      fields.College,
				GroupName:    fields.GroupName,
				EventID:      fields.EventID,
				RegisteredAt: time.Now(),
			})
			if err != nil {
				return fmt.Errorf("%w: row %d: %w", model.ErrIntegrity, i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("bulk registration complete", "count", len(list))
	return len(list), nil
}

// UpdateParams holds the five mutable contact fields of a participant.
type UpdateParams struct {
	Name      string
	Email     sql.NullString
	Phone     sql.NullString
	College   sql.NullString
	GroupName sql.NullString
}

// Update applies a partial field update excluding event and check-in
// status. One audit entry is appended for every field whose value
// actually changed, including changes to an empty value.
func (s *ParticipantService) Update(ctx context.Context, id int64, params UpdateParams, actorID int64) error {
	return inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		p, err := q.GetParticipant(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: participant %d", model.ErrNotFound, id)
			}
			return storageErr("loading participant", err)
		}

		now := time.Now()
		changes := []fieldChange{
			{model.AuditFieldName, model.Canonical(p.Name), model.Canonical(params.Name), util.NullStringFromValue(p.Name), util.NullStringFromValue(params.Name)},
			{model.AuditFieldEmail, model.Canonical(p.Email), model.Canonical(params.Email), p.Email, params.Email},
			{model.AuditFieldPhone, model.Canonical(p.Phone), model.Canonical(params.Phone), p.Phone, params.Phone},
			{model.AuditFieldCollege, model.Canonical(p.College), model.Canonical(params.College), p.College, params.College},
			{model.AuditFieldGroupName, model.Canonical(p.GroupName), model.Canonical(params.GroupName), p.GroupName, params.GroupName},
		}
		if err := appendChanged(ctx, q, id, actorID, now, changes); err != nil {
			return err
		}

		if err := q.UpdateParticipant(ctx, store.UpdateParticipantParams{
			ID:        id,
			Name:      params.Name,
			Email:     params.Email,
			Phone:     params.Phone,
			College:   params.College,
			GroupName: params.GroupName,
		}); err != nil {
			return storageErr("updating participant", err)
		}
		return nil
	})
}

// UpdateFullParams holds every mutable field including event
// reassignment and the check-in flag.
type UpdateFullParams struct {
	Name      string
	Email     sql.NullString
	Phone     sql.NullString
	College   sql.NullString
	GroupName sql.NullString
	EventID   int64
	CheckedIn bool
}

// UpdateFull applies a full update across all seven mutable fields.
// Values are canonicalized to text before diffing so type differences
// alone never log. Flipping the check-in flag keeps the timestamp
// paired: false->true stamps now, true->false clears it.
func (s *ParticipantService) UpdateFull(ctx context.Context, id int64, params UpdateFullParams, actorID int64) error {
	return inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		p, err := q.GetParticipant(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: participant %d", model.ErrNotFound, id)
			}
			return storageErr("loading participant", err)
		}

		if _, err := q.GetEvent(ctx, params.EventID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: event %d does not exist", model.ErrValidation, params.EventID)
			}
			return storageErr("looking up event", err)
		}

		now := time.Now()
		changes := []fieldChange{
			{model.AuditFieldName, model.Canonical(p.Name), model.Canonical(params.Name), util.NullStringFromValue(p.Name), util.NullStringFromValue(params.Name)},
			{model.AuditFieldEmail, model.Canonical(p.Email), model.Canonical(params.Email), p.Email, params.Email},
			{model.AuditFieldPhone, model.Canonical(p.Phone), model.Canonical(params.Phone), p.Phone, params.Phone},
			{model.AuditFieldCollege, model.Canonical(p.College), model.Canonical(params.College), p.College, params.College},
			{model.AuditFieldGroupName, model.Canonical(p.GroupName), model.Canonical(params.GroupName), p.GroupName, params.GroupName},
			{model.AuditFieldEventID, model.Canonical(p.EventID), model.Canonical(params.EventID), util.NullStringFromValue(model.Canonical(p.EventID)), util.NullStringFromValue(model.Canonical(params.EventID))},
			{model.AuditFieldCheckedIn, model.Canonical(p.CheckedIn), model.Canonical(params.CheckedIn), util.NullStringFromValue(model.Canonical(p.CheckedIn)), util.NullStringFromValue(model.Canonical(params.CheckedIn))},
		}
		if err := appendChanged(ctx, q, id, actorID, now, changes); err != nil {
			return err
		}

		// Keep the flag and timestamp paired on transitions; otherwise
		// carry the existing timestamp.
		checkInTime := p.CheckInTime
		if !p.CheckedIn && params.CheckedIn {
			checkInTime = sql.NullTime{Time: now, Valid: true}
		} else if p.CheckedIn && !params.CheckedIn {
			checkInTime = sql.NullTime{}
		}

		if err := q.UpdateParticipantFull(ctx, store.UpdateParticipantFullParams{
			ID:          id,
			Name:        params.Name,
			Email:       params.Email,
			Phone:       params.Phone,
			College:     params.College,
			GroupName:   params.GroupName,
			EventID:     params.EventID,
			CheckedIn:   params.CheckedIn,
			CheckInTime: checkInTime,
		}); err != nil {
			return storageErr("updating participant", err)
		}
		return nil
	})
}

// CheckIn marks a participant present, stamping the check-in time and
// optionally storing a processed ID card photo. The operation is
// idempotent-guarded: an already checked-in participant is left
// untouched and CheckIn reports false without an error, so at most one
// check-in is recorded per check-in cycle.
func (s *ParticipantService) CheckIn(ctx context.Context, id, actorID int64, photo []byte) (bool, error) {
	var done bool
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		p, err := q.GetParticipant(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: participant %d", model.ErrNotFound, id)
			}
			return storageErr("loading participant", err)
		}

		if p.CheckedIn {
			return nil
		}

		now := time.Now()
		if err := q.CheckInParticipant(ctx, store.CheckInParticipantParams{
			ID:          id,
			CheckInTime: now,
			Photo:       photo,
		}); err != nil {
			return storageErr("checking in participant", err)
		}

		if _, err := q.CreateAuditEntry(ctx, store.CreateAuditEntryParams{
			ParticipantID: id,
			FieldName:     model.AuditFieldCheckedIn,
			OldValue:      sql.NullString{String: "0", Valid: true},
			NewValue:      sql.NullString{String: "1", Valid: true},
			ModifiedBy:    util.NullInt64FromValue(actorID),
			ModifiedAt:    now,
		}); err != nil {
			return storageErr("logging check-in", err)
		}

		// Photo bytes never enter the audit log, only a marker.
		if photo != nil {
			if _, err := q.CreateAuditEntry(ctx, store.CreateAuditEntryParams{
				ParticipantID: id,
				FieldName:     model.AuditFieldPhoto,
				NewValue:      sql.NullString{String: model.AuditPhotoCaptured, Valid: true},
				ModifiedBy:    util.NullInt64FromValue(actorID),
				ModifiedAt:    now,
			}); err != nil {
				return storageErr("logging photo capture", err)
			}
		}

		done = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if done {
		s.logger.Info("participant checked in", "participant_id", id, "actor_id", actorID, "photo", photo != nil)
	}
	return done, nil
}

// UndoCheckIn clears the check-in flag, timestamp and any stored photo.
// Two audit entries are always written: the status flip and a photo
// removal marker. The marker is unconditional even when no photo was
// stored, mirroring the long-standing behavior history consumers expect.
func (s *ParticipantService) UndoCheckIn(ctx context.Context, id, actorID int64) error {
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		if _, err := q.GetParticipant(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: participant %d", model.ErrNotFound, id)
			}
			return storageErr("loading participant", err)
		}

		now := time.Now()
		if err := q.ClearCheckIn(ctx, id); err != nil {
			return storageErr("clearing check-in", err)
		}

		if _, err := q.CreateAuditEntry(ctx, store.CreateAuditEntryParams{
			ParticipantID: id,
			FieldName:     model.AuditFieldCheckedIn,
			OldValue:      sql.NullString{String: "1", Valid: true},
			NewValue:      sql.NullString{String: "0", Valid: true},
			ModifiedBy:    util.NullInt64FromValue(actorID),
			ModifiedAt:    now,
		}); err != nil {
			return storageErr("logging undo", err)
		}

		if _, err := q.CreateAuditEntry(ctx, store.CreateAuditEntryParams{
			ParticipantID: id,
			FieldName:     model.AuditFieldPhoto,
			OldValue:      sql.NullString{String: model.AuditPhotoCaptured, Valid: true},
			NewValue:      sql.NullString{String: model.AuditPhotoRemoved, Valid: true},
			ModifiedBy:    util.NullInt64FromValue(actorID),
			ModifiedAt:    now,
		}); err != nil {
			return storageErr("logging photo removal", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("check-in undone", "participant_id", id, "actor_id", actorID)
	return nil
}

// Delete removes a participant and cascades deletion of all its audit
// entries in the same transaction.
func (s *ParticipantService) Delete(ctx context.Context, id int64) error {
	return inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		if _, err := q.GetParticipant(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: participant %d", model.ErrNotFound, id)
			}
			return storageErr("loading participant", err)
		}

		if err := q.DeleteAuditByParticipant(ctx, id); err != nil {
			return storageErr("deleting audit entries", err)
		}
		if err := q.DeleteParticipant(ctx, id); err != nil {
			return storageErr("deleting participant", err)
		}
		return nil
	})
}

// Get returns a participant by id.
func (s *ParticipantService) Get(ctx context.Context, id int64) (model.Participant, error) {
	p, err := s.queries.GetParticipant(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Participant{}, fmt.Errorf("%w: participant %d", model.ErrNotFound, id)
		}
		return model.Participant{}, storageErr("loading participant", err)
	}
	return p, nil
}

// ListByEvent returns all participants of one event ordered by name.
func (s *ParticipantService) ListByEvent(ctx context.Context, eventID int64) ([]model.Participant, error) {
	out, err := s.queries.ListParticipantsByEvent(ctx, eventID)
	if err != nil {
		return nil, storageErr("listing participants", err)
	}
	return out, nil
}

// Search matches the term case-insensitively against name, email,
// phone, college and group name, scoped to one event when eventID is
// non-nil.
func (s *ParticipantService) Search(ctx context.Context, term string, eventID *int64) ([]model.Participant, error) {
	out, err := s.queries.SearchParticipants(ctx, store.SearchParticipantsParams{
		Term:    term,
		EventID: util.NullInt64FromPtr(eventID),
	})
	if err != nil {
		return nil, storageErr("searching participants", err)
	}
	return out, nil
}

// History returns audit entries newest-first: the full history of one
// participant, or the most recent entries system-wide when
// participantID is nil.
func (s *ParticipantService) History(ctx context.Context, participantID *int64) ([]store.AuditEntryRow, error) {
	var (
		rows []store.AuditEntryRow
		err  error
	)
	if participantID != nil {
		rows, err = s.queries.ListAuditByParticipant(ctx, *participantID)
	} else {
		rows, err = s.queries.ListRecentAudit(ctx)
	}
	if err != nil {
		return nil, storageErr("loading history", err)
	}
	return rows, nil
}

// Photo returns the stored ID card photo bytes, or nil when none was
// captured.
func (s *ParticipantService) Photo(ctx context.Context, id int64) ([]byte, error) {
	photo, err := s.queries.GetParticipantPhoto(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: participant %d", model.ErrNotFound, id)
		}
		return nil, storageErr("loading photo", err)
	}
	return photo, nil
}

// fieldChange pairs canonicalized values for diffing with the raw
// nullable values written to the log.
type fieldChange struct {
	field  string
	oldCan string
	newCan string
	oldVal sql.NullString
	newVal sql.NullString
}

// appendChanged writes one audit entry per field whose canonical value
// differs.
func appendChanged(ctx context.Context, q *store.Queries, participantID, actorID int64, at time.Time, changes []fieldChange) error {
	for _, c := range changes {
		if c.oldCan == c.newCan {
			continue
		}
		if _, err := q.CreateAuditEntry(ctx, store.CreateAuditEntryParams{
			ParticipantID: participantID,
			FieldName:     c.field,
			OldValue:      c.oldVal,
			NewValue:      c.newVal,
			ModifiedBy:    util.NullInt64FromValue(actorID),
			ModifiedAt:    at,
		}); err != nil {
			return storageErr("logging field change", err)
		}
	}
	return nil
}
