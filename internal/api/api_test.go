package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/api"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/mocks"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/service"
	"github.com/script-select-api/internal/store"
)

type routerHarness struct {
	router  *gin.Engine
	stores  *store.Stores
	gateway *mocks.MockGateway
}

func setupTestRouter() *routerHarness {
	gin.SetMode(gin.TestMode)

	gateway := mocks.NewMockGateway()
	stores := store.New()
	stores.Catalog.Replace([]models.Script{
		{ID: "CUT-001", Category: "剪髮", Title: "層次剪裁"},
		{ID: "CUT-002", Category: "剪髮", Title: "短髮造型"},
		{ID: "COL-001", Category: "染髮", Title: "漸層染"},
	})
	stores.Roster.Replace([]models.User{
		{ID: "u1", Name: "王小明", Role: models.RoleStylist},
		{ID: "admin", Name: "管理員", Role: models.RoleAdmin},
	})

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Sources: config.SourcesConfig{
			FetchTimeout: 5 * time.Second,
		},
		Selection: config.SelectionConfig{
			Window:       24 * time.Hour,
			SampleSize:   15,
			DefaultQuota: 10,
		},
	}

	log := zerolog.Nop()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	services := service.NewServices(stores, gateway, cfg, clock, log)
	router := api.NewRouter(services, cfg, log)

	return &routerHarness{router: router, stores: stores, gateway: gateway}
}

func (h *routerHarness) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func (h *routerHarness) login(t *testing.T, id string) string {
	t.Helper()
	w, body := h.do(t, "POST", "/v1/sessions", map[string]string{"id": id}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected login status 201, got %d: %s", w.Code, w.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("Expected a session token")
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	h := setupTestRouter()

	w, body := h.do(t, "GET", "/health", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
	if body["read_only"] != false {
		t.Errorf("Expected read_only false, got %v", body["read_only"])
	}
}

func TestLoginUnknownUserReturns404(t *testing.T) {
	h := setupTestRouter()

	w, _ := h.do(t, "POST", "/v1/sessions", map[string]string{"id": "nobody"}, nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestSelectionFlow(t *testing.T) {
	h := setupTestRouter()
	token := h.login(t, "u1")

	w, body := h.do(t, "GET", "/v1/sessions/"+token+"/library?category=All", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected library status 200, got %d", w.Code)
	}
	if scripts, ok := body["scripts"].([]any); !ok || len(scripts) != 3 {
		t.Errorf("Expected 3 scripts in the library, got %v", body["scripts"])
	}

	w, body = h.do(t, "POST", "/v1/sessions/"+token+"/toggle", map[string]string{"script_id": "CUT-001"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected toggle status 200, got %d: %s", w.Code, w.Body.String())
	}
	if body["count"] != float64(1) {
		t.Errorf("Expected count 1, got %v", body["count"])
	}

	w, body = h.do(t, "POST", "/v1/sessions/"+token+"/save", map[string]bool{"confirm": false}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected save status 200, got %d", w.Code)
	}
	if body["requires_confirm"] != true {
		t.Errorf("Expected confirmation request, got %v", body)
	}

	w, body = h.do(t, "POST", "/v1/sessions/"+token+"/save", map[string]bool{"confirm": true}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected confirmed save status 200, got %d", w.Code)
	}
	if body["saved"] != true {
		t.Errorf("Expected saved true, got %v", body)
	}

	w, body = h.do(t, "GET", "/v1/sessions/"+token+"/selection", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected selection status 200, got %d", w.Code)
	}
	if body["count"] != float64(1) {
		t.Errorf("Expected 1 selected script, got %v", body["count"])
	}
}

func TestToggleConflictStatuses(t *testing.T) {
	h := setupTestRouter()
	token := h.login(t, "u1")

	w, _ := h.do(t, "POST", "/v1/sessions/"+token+"/toggle", map[string]string{"script_id": "PER-404"}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for an unknown script, got %d", w.Code)
	}

	w, _ = h.do(t, "POST", "/v1/sessions/"+token+"/save", map[string]bool{"confirm": false}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a save with no changes, got %d", w.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	h := setupTestRouter()

	w, _ := h.do(t, "GET", "/v1/sessions/bogus-token", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	h := setupTestRouter()
	token := h.login(t, "u1")

	w, _ := h.do(t, "DELETE", "/v1/sessions/"+token, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}

	w, _ = h.do(t, "GET", "/v1/sessions/"+token, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after logout, got %d", w.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	h := setupTestRouter()

	w, _ := h.do(t, "GET", "/v1/admin/users", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without a token, got %d", w.Code)
	}

	stylist := h.login(t, "u1")
	w, _ = h.do(t, "GET", "/v1/admin/users", nil, map[string]string{"X-Session-Token": stylist})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for a stylist token, got %d", w.Code)
	}

	admin := h.login(t, "admin")
	w, body := h.do(t, "GET", "/v1/admin/users", nil, map[string]string{"X-Session-Token": admin})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for an admin token, got %d", w.Code)
	}
	if body["count"] != float64(2) {
		t.Errorf("Expected 2 roster accounts, got %v", body["count"])
	}
}

func TestAdminCreateScript(t *testing.T) {
	h := setupTestRouter()
	admin := h.login(t, "admin")

	w, body := h.do(t, "POST", "/v1/admin/scripts", map[string]string{
		"category": "染髮",
		"title":    "新染髮腳本",
	}, map[string]string{"X-Session-Token": admin})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	script, _ := body["script"].(map[string]any)
	if script["id"] != "COL-002" {
		t.Errorf("Expected generated id COL-002, got %v", script["id"])
	}

	w, _ = h.do(t, "POST", "/v1/admin/scripts", map[string]string{"title": "no category"},
		map[string]string{"X-Session-Token": admin})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing category, got %d", w.Code)
	}
}

func TestAdminUpdatePool(t *testing.T) {
	h := setupTestRouter()
	admin := h.login(t, "admin")

	w, body := h.do(t, "PUT", "/v1/admin/users/u1/pool", map[string][]string{
		"pool": {"cat:剪髮", "COL-001"},
	}, map[string]string{"X-Session-Token": admin})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	user, _ := body["user"].(map[string]any)
	if pool, ok := user["script_pool"].([]any); !ok || len(pool) != 2 {
		t.Errorf("Expected 2 pool entries, got %v", user["script_pool"])
	}

	w, _ = h.do(t, "PUT", "/v1/admin/users/missing/pool", map[string][]string{"pool": {}},
		map[string]string{"X-Session-Token": admin})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for an unknown user, got %d", w.Code)
	}
}

func TestAdminCreateUserConflict(t *testing.T) {
	h := setupTestRouter()
	admin := h.login(t, "admin")
	headers := map[string]string{"X-Session-Token": admin}

	w, _ := h.do(t, "POST", "/v1/admin/users", map[string]any{"id": "u9", "name": "新造型師", "quota": 5}, headers)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w, _ = h.do(t, "POST", "/v1/admin/users", map[string]any{"id": "u9", "name": "重複"}, headers)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a duplicate user, got %d", w.Code)
	}
}

func TestReadOnlySaveReturns409(t *testing.T) {
	h := setupTestRouter()
	h.gateway.Writable = false
	token := h.login(t, "u1")

	w, _ := h.do(t, "POST", "/v1/sessions/"+token+"/toggle", map[string]string{"script_id": "CUT-001"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected toggle to work in read-only mode, got %d", w.Code)
	}

	w, _ = h.do(t, "POST", "/v1/sessions/"+token+"/save", map[string]bool{"confirm": true}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a read-only save, got %d", w.Code)
	}
}

func TestAdminRefreshBadGateway(t *testing.T) {
	h := setupTestRouter()
	admin := h.login(t, "admin")
	h.gateway.FetchScriptsErr = fmt.Errorf("source unreachable")

	w, _ := h.do(t, "POST", "/v1/admin/refresh", nil, map[string]string{"X-Session-Token": admin})
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502 when the source is unreachable, got %d", w.Code)
	}
}
