// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/olegiv/erms-go/internal/backup"
	"github.com/olegiv/erms-go/internal/imaging"
	"github.com/olegiv/erms-go/internal/middleware"
	"github.com/olegiv/erms-go/internal/model"
	"github.com/olegiv/erms-go/internal/service"
	"github.com/olegiv/erms-go/internal/store"
)

type testEnv struct {
	router  http.Handler
	adminID int64
	users   *service.UserService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "erms.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := service.NewUserService(db, logger)
	admin, err := users.Create(context.Background(), service.CreateUserParams{
		Username: "admin", Password: "changeme", Role: model.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	backups := backup.NewManager(db, dbPath, filepath.Join(dir, "backups"), logger)
	photos := imaging.NewProcessor(1280, 1280)
	h := New(db, backups, photos, logger)

	return &testEnv{router: h.Routes(), adminID: admin.ID, users: users}
}

// do performs a request as the given actor and decodes the JSON body.
func (e *testEnv) do(t *testing.T, method, path string, body any, actorID int64) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if actorID != 0 {
		r.Header.Set(middleware.ActorHeader, strconv.FormatInt(actorID, 10))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)

	var decoded map[string]any
	if w.Body.Len() > 0 && strings.Contains(w.Header().Get("Content-Type"), "json") {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, decoded
}

func (e *testEnv) createEvent(t *testing.T, name string) int64 {
	t.Helper()
	code, body := e.do(t, http.MethodPost, "/events", map[string]any{
		"name": name, "date": "2026-09-01", "location": "Main Hall",
	}, e.adminID)
	if code != http.StatusCreated {
		t.Fatalf("creating event: status %d body %v", code, body)
	}
	return int64(body["data"].(map[string]any)["id"].(float64))
}

func (e *testEnv) createParticipant(t *testing.T, name string, eventID int64) int64 {
	t.Helper()
	code, body := e.do(t, http.MethodPost, "/participants", map[string]any{
		"name": name, "event_id": eventID,
	}, e.adminID)
	if code != http.StatusCreated {
		t.Fatalf("creating participant: status %d body %v", code, body)
	}
	return int64(body["data"].(map[string]any)["id"].(float64))
}

func TestLogin(t *testing.T) {
	env := setupEnv(t)

	code, body := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "admin", "password": "changeme",
	}, 0)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	data := body["data"].(map[string]any)
	if data["user"].(map[string]any)["username"] != "admin" {
		t.Errorf("data = %v", data)
	}
	if _, ok := data["user"].(map[string]any)["password_hash"]; ok {
		t.Error("password hash leaked in response")
	}

	code, _ = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "admin", "password": "wrong",
	}, 0)
	if code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d", code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := setupEnv(t)

	code, _ := env.do(t, http.MethodGet, "/events", nil, 0)
	if code != http.StatusUnauthorized {
		t.Errorf("no actor status = %d", code)
	}
}

func TestPermissionEnforced(t *testing.T) {
	env := setupEnv(t)

	viewer, err := env.users.Create(context.Background(), service.CreateUserParams{
		Username: "viewer", Password: "x", Role: model.RoleViewer,
	})
	if err != nil {
		t.Fatalf("creating viewer: %v", err)
	}

	// Viewers can read but not mutate.
	code, _ := env.do(t, http.MethodGet, "/events", nil, viewer.ID)
	if code != http.StatusOK {
		t.Errorf("viewer list status = %d", code)
	}
	code, _ = env.do(t, http.MethodPost, "/events", map[string]any{"name": "Nope"}, viewer.ID)
	if code != http.StatusForbidden {
		t.Errorf("viewer create status = %d", code)
	}
	code, _ = env.do(t, http.MethodGet, "/stats/totals", nil, viewer.ID)
	if code != http.StatusOK {
		t.Errorf("viewer stats status = %d", code)
	}
}

func TestEventCRUD(t *testing.T) {
	env := setupEnv(t)
	id := env.createEvent(t, "Tech Fest")

	code, body := env.do(t, http.MethodGet, fmt.Sprintf("/events/%d", id), nil, env.adminID)
	if code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	if body["data"].(map[string]any)["name"] != "Tech Fest" {
		t.Errorf("body = %v", body)
	}

	code, body = env.do(t, http.MethodPut, fmt.Sprintf("/events/%d", id), map[string]any{
		"name": "Tech Fest 2026", "location": "Annex",
	}, env.adminID)
	if code != http.StatusOK || body["data"].(map[string]any)["name"] != "Tech Fest 2026" {
		t.Errorf("update status = %d body = %v", code, body)
	}

	code, body = env.do(t, http.MethodPost, "/events", map[string]any{"name": "Bad Date", "date": "tomorrow"}, env.adminID)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("bad date status = %d body = %v", code, body)
	}

	code, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, env.adminID)
	if code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	code, _ = env.do(t, http.MethodGet, fmt.Sprintf("/events/%d", id), nil, env.adminID)
	if code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", code)
	}
}

func TestParticipantFlow(t *testing.T) {
	env := setupEnv(t)
	eventID := env.createEvent(t, "Summit")
	id := env.createParticipant(t, "Asha Rao", eventID)

	code, body := env.do(t, http.MethodPost, fmt.Sprintf("/participants/%d/checkin", id), nil, env.adminID)
	if code != http.StatusOK {
		t.Fatalf("checkin status = %d body = %v", code, body)
	}
	if body["data"].(map[string]any)["already_checked_in"] != false {
		t.Errorf("body = %v", body)
	}

	// Second check-in reports the idempotent path.
	code, body = env.do(t, http.MethodPost, fmt.Sprintf("/participants/%d/checkin", id), nil, env.adminID)
	if code != http.StatusOK || body["data"].(map[string]any)["already_checked_in"] != true {
		t.Errorf("repeat checkin status = %d body = %v", code, body)
	}

	code, body = env.do(t, http.MethodGet, fmt.Sprintf("/participants/%d/history", id), nil, env.adminID)
	if code != http.StatusOK {
		t.Fatalf("history status = %d", code)
	}
	if n := len(body["data"].([]any)); n != 1 {
		t.Errorf("history entries = %d, want 1", n)
	}

	code, _ = env.do(t, http.MethodPost, fmt.Sprintf("/participants/%d/undo-checkin", id), nil, env.adminID)
	if code != http.StatusOK {
		t.Errorf("undo status = %d", code)
	}

	code, body = env.do(t, http.MethodGet, "/participants/search?q=asha", nil, env.adminID)
	if code != http.StatusOK || len(body["data"].([]any)) != 1 {
		t.Errorf("search status = %d body = %v", code, body)
	}
	code, _ = env.do(t, http.MethodGet, "/participants/search", nil, env.adminID)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("empty search status = %d", code)
	}

	// No photo captured yet.
	code, _ = env.do(t, http.MethodGet, fmt.Sprintf("/participants/%d/photo", id), nil, env.adminID)
	if code != http.StatusNotFound {
		t.Errorf("photo status = %d", code)
	}
}

func TestStatsEndpoints(t *testing.T) {
	env := setupEnv(t)
	eventID := env.createEvent(t, "Expo")
	id := env.createParticipant(t, "Ravi", eventID)
	env.createParticipant(t, "Meena", eventID)
	env.do(t, http.MethodPost, fmt.Sprintf("/participants/%d/checkin", id), nil, env.adminID)

	code, body := env.do(t, http.MethodGet, fmt.Sprintf("/stats/totals?event_id=%d", eventID), nil, env.adminID)
	if code != http.StatusOK {
		t.Fatalf("totals status = %d", code)
	}
	data := body["data"].(map[string]any)
	if data["total"].(float64) != 2 || data["checked_in"].(float64) != 1 || data["rate"].(float64) != 50.0 {
		t.Errorf("totals = %v", data)
	}

	code, body = env.do(t, http.MethodGet, "/stats/timeline", nil, env.adminID)
	if code != http.StatusOK || len(body["data"].([]any)) != 24 {
		t.Errorf("timeline status = %d body = %v", code, body)
	}
}

func TestImportEndpoints(t *testing.T) {
	env := setupEnv(t)
	eventID := env.createEvent(t, "Importable")

	csvData := fmt.Sprintf("Name,Email,Event ID\nAsha,asha@example.com,%d\nRavi,,%d\n", eventID, eventID)

	post := func(path string) (int, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "participants.csv")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		_, _ = part.Write([]byte(csvData))
		_ = mw.Close()

		r := httptest.NewRequest(http.MethodPost, path, &buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		r.Header.Set(middleware.ActorHeader, strconv.FormatInt(env.adminID, 10))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, r)

		var decoded map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding response %q: %v", w.Body.String(), err)
		}
		return w.Code, decoded
	}

	code, body := post("/import/validate")
	if code != http.StatusOK {
		t.Fatalf("validate status = %d body = %v", code, body)
	}
	report := body["data"].(map[string]any)
	if report["rows"].(float64) != 2 {
		t.Errorf("report = %v", report)
	}

	code, body = post("/import")
	if code != http.StatusCreated {
		t.Fatalf("apply status = %d body = %v", code, body)
	}
	if body["data"].(map[string]any)["inserted"].(float64) != 2 {
		t.Errorf("report = %v", body)
	}

	code, body = env.do(t, http.MethodGet, fmt.Sprintf("/events/%d/participants", eventID), nil, env.adminID)
	if code != http.StatusOK || len(body["data"].([]any)) != 2 {
		t.Errorf("participants after import = %v", body)
	}
}

func TestBackupEndpoints(t *testing.T) {
	env := setupEnv(t)

	code, body := env.do(t, http.MethodPost, "/backups", nil, env.adminID)
	if code != http.StatusCreated {
		t.Fatalf("create backup status = %d body = %v", code, body)
	}
	filename := body["data"].(map[string]any)["filename"].(string)

	code, body = env.do(t, http.MethodGet, "/backups", nil, env.adminID)
	if code != http.StatusOK || len(body["data"].([]any)) != 1 {
		t.Errorf("list backups = %v", body)
	}

	code, _ = env.do(t, http.MethodPost, "/backups/"+filename+"/restore", nil, env.adminID)
	if code != http.StatusOK {
		t.Errorf("restore status = %d", code)
	}
}
