package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) (*gin.Engine, *models.Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), config.InitConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := models.NewRepo(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return newRouter(repo), repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow_RegisterLoginMe(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"name":"Nguyễn Văn An","citizen_id":"001098123456","password":"secret123"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/login",
		`{"login":"001098123456","password":"secret123"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", w.Code, w.Body.String())
	}
	var info struct {
		Token string `json:"token"`
		User  struct {
			ID   int    `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if info.Token == "" || info.User.Role != "CITIZEN" {
		t.Fatalf("login payload = %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/auth/me", "", info.Token)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d body = %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "secret123") {
		t.Error("me response leaks password")
	}

	w = doJSON(t, r, http.MethodGet, "/api/auth/me", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me without token status = %d", w.Code)
	}
}

func TestLoginHandler_UniformUnauthorized(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"name":"Nguyễn Văn An","citizen_id":"001098123456","password":"secret123"}`, "")

	wrongPass := doJSON(t, r, http.MethodPost, "/api/auth/login",
		`{"login":"001098123456","password":"wrong"}`, "")
	unknown := doJSON(t, r, http.MethodPost, "/api/auth/login",
		`{"login":"999999999999","password":"secret123"}`, "")

	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d/%d, want 401/401", wrongPass.Code, unknown.Code)
	}
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Errorf("failure bodies differ: %s vs %s", wrongPass.Body.String(), unknown.Body.String())
	}
}

func TestRoleGates(t *testing.T) {
	r, repo := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"name":"Nguyễn Văn An","citizen_id":"001098123456","password":"secret123"}`, "")
	login := doJSON(t, r, http.MethodPost, "/api/auth/login",
		`{"login":"001098123456","password":"secret123"}`, "")
	var info struct {
		Token string `json:"token"`
		User  struct {
			ID int `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	// A citizen cannot reach officer or admin surfaces.
	if w := doJSON(t, r, http.MethodGet, "/api/applications", "", info.Token); w.Code != http.StatusForbidden {
		t.Errorf("citizen on officer route: status = %d, want 403", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/admin/users", "", info.Token); w.Code != http.StatusForbidden {
		t.Errorf("citizen on admin route: status = %d, want 403", w.Code)
	}

	// Promote and re-login: the new token carries the officer role.
	if err := repo.DB().Model(&models.User{}).Where("id = ?", info.User.ID).
		Update("role", models.UserRoleOfficer).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	login = doJSON(t, r, http.MethodPost, "/api/auth/login",
		`{"login":"001098123456","password":"secret123"}`, "")
	if err := json.Unmarshal(login.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode relogin: %v", err)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/applications", "", info.Token); w.Code != http.StatusOK {
		t.Errorf("officer on officer route: status = %d body = %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/api/admin/users", "", info.Token); w.Code != http.StatusForbidden {
		t.Errorf("officer on admin route: status = %d, want 403", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("healthz status = %d, want 204", w.Code)
	}
}

func TestRegisterHandler_ValidationErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	// Missing required fields surface the field map from the validator.
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", `{"name":"A"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"name":"A","citizen_id":"12ab","password":"secret123"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad citizen id status = %d, want 400", w.Code)
	}
}
