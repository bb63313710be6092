// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the JSON HTTP API for events, participants,
// bulk imports, statistics and backups.
package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/erms-go/internal/backup"
	"github.com/olegiv/erms-go/internal/imaging"
	"github.com/olegiv/erms-go/internal/importer"
	"github.com/olegiv/erms-go/internal/middleware"
	"github.com/olegiv/erms-go/internal/model"
	"github.com/olegiv/erms-go/internal/service"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	events       *service.EventService
	participants *service.ParticipantService
	users        *service.UserService
	stats        *service.StatsService
	importer     *importer.Importer
	backups      *backup.Manager
	photos       *imaging.Processor
	logger       *slog.Logger
}

// New creates the API handler with all its services.
func New(db *sql.DB, backups *backup.Manager, photos *imaging.Processor, logger *slog.Logger) *Handler {
	participants := service.NewParticipantService(db, logger)
	return &Handler{
		events:       service.NewEventService(db, logger),
		participants: participants,
		users:        service.NewUserService(db, logger),
		stats:        service.NewStatsService(db, logger),
		importer:     importer.New(participants, logger),
		backups:      backups,
		photos:       photos,
		logger:       logger,
	}
}

// Routes builds the API router. Every route past login requires an
// actor; mutating routes additionally require the matching permission.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Actor(h.users))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)
			r.Get("/{id}/participants", h.ListEventParticipants)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermManageEvents))
				r.Post("/", h.CreateEvent)
				r.Put("/{id}", h.UpdateEvent)
				r.Delete("/{id}", h.DeleteEvent)
			})
		})

		r.Route("/participants", func(r chi.Router) {
			r.Get("/search", h.SearchParticipants)
			r.Get("/history", h.RecentHistory)
			r.Get("/{id}", h.GetParticipant)
			r.Get("/{id}/history", h.ParticipantHistory)
			r.Get("/{id}/photo", h.ParticipantPhoto)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermManageRegistration))
				r.Post("/", h.CreateParticipant)
				r.Put("/{id}", h.UpdateParticipant)
				r.Delete("/{id}", h.DeleteParticipant)
				r.Post("/{id}/checkin", h.CheckIn)
				r.Post("/{id}/undo-checkin", h.UndoCheckIn)
			})
		})

		r.Route("/import", func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermUploadData))
			r.Post("/validate", h.ValidateImport)
			r.Post("/", h.ApplyImport)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermViewDashboard))
			r.Get("/totals", h.StatsTotals)
			r.Get("/colleges", h.StatsColleges)
			r.Get("/events", h.StatsEvents)
			r.Get("/timeline", h.StatsTimeline)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermManageUsers))
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Delete("/{id}", h.DeleteUser)
		})

		r.Route("/backups", func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermManageUsers))
			r.Get("/", h.ListBackups)
			r.Post("/", h.CreateBackup)
			r.Post("/{filename}/restore", h.RestoreBackup)
		})
	})

	return r
}

// idParam parses the {id} URL parameter. Writes a 422 and returns
// false when it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusUnprocessableEntity, "validation_error", "invalid id")
		return 0, false
	}
	return id, true
}

// optionalEventID parses the event_id query parameter, nil when absent.
func optionalEventID(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("event_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusUnprocessableEntity, "validation_error", "invalid event_id")
		return nil, false
	}
	return &id, true
}

// actorID returns the acting user's id. The actor middleware
// guarantees presence on all routes that reach this.
func actorID(r *http.Request) int64 {
	user, _ := middleware.ActorFromContext(r.Context())
	return user.ID
}
