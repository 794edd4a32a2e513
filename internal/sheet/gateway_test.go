package sheet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/sheet"
)

func newTestGateway(cfg *config.SourcesConfig) *sheet.Gateway {
	return sheet.NewGateway(cfg, clockwork.NewRealClock(), zerolog.Nop())
}

func TestFetchScripts(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("id,category,title\nCUT-001,剪髮,層次剪裁\n"))
	}))
	defer server.Close()

	gw := newTestGateway(&config.SourcesConfig{
		ScriptsURL: server.URL + "/scripts",
		UsersURL:   server.URL + "/users",
	})

	scripts, err := gw.FetchScripts(context.Background())
	if err != nil {
		t.Fatalf("Expected fetch to succeed, got %v", err)
	}
	if len(scripts) != 1 || scripts[0].ID != "CUT-001" {
		t.Errorf("Expected [CUT-001], got %v", scripts)
	}
	if gotQuery == "" {
		t.Error("Expected a cache-busting query parameter on the fetch")
	}
}

func TestFetchScriptsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := newTestGateway(&config.SourcesConfig{ScriptsURL: server.URL})

	if _, err := gw.FetchScripts(context.Background()); err == nil {
		t.Error("Expected an error for a 500 response")
	}
}

func TestFetchUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id,name,role\nu1,王小明,stylist\n"))
	}))
	defer server.Close()

	gw := newTestGateway(&config.SourcesConfig{UsersURL: server.URL})

	users, err := gw.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("Expected fetch to succeed, got %v", err)
	}
	if len(users) != 1 || users[0].Name != "王小明" {
		t.Errorf("Expected 王小明, got %v", users)
	}
}

func TestSaveSelectionDispatchesFullSet(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	gw := newTestGateway(&config.SourcesConfig{WriteEndpoint: server.URL})

	result := gw.SaveSelection(context.Background(), "u1", []string{"CUT-001", "COL-001"})
	if !result.Dispatched() {
		t.Fatalf("Expected dispatch to succeed, got %v", result.Err)
	}
	if result.Status != sheet.StatusDispatched {
		t.Errorf("Expected status %s, got %s", sheet.StatusDispatched, result.Status)
	}
	if payload["action"] != sheet.ActionUpdateUserPermissions {
		t.Errorf("Expected action %s, got %v", sheet.ActionUpdateUserPermissions, payload["action"])
	}
	if payload["assignedScripts"] != "CUT-001,COL-001" {
		t.Errorf("Expected comma-joined full set, got %v", payload["assignedScripts"])
	}
}

func TestStartTimerDispatchesEpochMillis(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer server.Close()

	gw := newTestGateway(&config.SourcesConfig{WriteEndpoint: server.URL})
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	result := gw.StartTimer(context.Background(), "u1", start)
	if !result.Dispatched() {
		t.Fatalf("Expected dispatch to succeed, got %v", result.Err)
	}
	if payload["action"] != sheet.ActionStartUserTimer {
		t.Errorf("Expected action %s, got %v", sheet.ActionStartUserTimer, payload["action"])
	}
	// JSON numbers decode as float64
	if int64(payload["selectionStartTime"].(float64)) != start.UnixMilli() {
		t.Errorf("Expected %d, got %v", start.UnixMilli(), payload["selectionStartTime"])
	}
}

func TestDispatchReadOnly(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	gw := newTestGateway(&config.SourcesConfig{})

	if gw.CanWrite() {
		t.Error("Expected CanWrite to be false without a write endpoint")
	}
	result := gw.SaveSelection(context.Background(), "u1", []string{"CUT-001"})
	if result.Err != sheet.ErrReadOnly {
		t.Errorf("Expected ErrReadOnly, got %v", result.Err)
	}
	if requests != 0 {
		t.Errorf("Expected no request in read-only mode, got %d", requests)
	}
}

func TestDispatchTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	gw := newTestGateway(&config.SourcesConfig{WriteEndpoint: server.URL})

	result := gw.CreateUser(context.Background(), models.User{ID: "u9", Name: "新造型師"})
	if result.Dispatched() {
		t.Error("Expected a transport failure to be reported")
	}
	if result.Status == sheet.StatusConfirmed {
		t.Error("Expected the gateway to never report a confirmed write")
	}
	if result.ID == uuid.Nil {
		t.Error("Expected a dispatch identifier even on failure")
	}
}

func TestCreateScriptPayloadFlattensStages(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer server.Close()

	gw := newTestGateway(&config.SourcesConfig{WriteEndpoint: server.URL})

	script := models.Script{ID: "CUT-003", Category: "剪髮", Title: "新剪裁"}
	script.Stages[0].Points = "開場"
	script.Stages[3].Dialogue = "「下次見」"

	result := gw.CreateScript(context.Background(), script)
	if !result.Dispatched() {
		t.Fatalf("Expected dispatch to succeed, got %v", result.Err)
	}
	if payload["action"] != sheet.ActionCreateScript {
		t.Errorf("Expected action %s, got %v", sheet.ActionCreateScript, payload["action"])
	}
	if payload["start_points"] != "開場" {
		t.Errorf("Expected flattened start_points, got %v", payload["start_points"])
	}
	if payload["end_dialogue"] != "「下次見」" {
		t.Errorf("Expected flattened end_dialogue, got %v", payload["end_dialogue"])
	}
}
