package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fluencykaizen/backend/internal/api/middleware"
	"github.com/fluencykaizen/backend/internal/auth"
	"github.com/fluencykaizen/backend/internal/db"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.EnsureAdmin("admin", "hunter2"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	return NewAuthHandler(database, auth.NewJWTService("test-secret"))
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("empty token")
	}
	if resp.User.Username != "admin" || resp.User.Role != "admin" {
		t.Errorf("user = %+v", resp.User)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"username":"ghost","password":"x"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"username":"  ","password":""}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMeServesClaims(t *testing.T) {
	h := newAuthHandler(t)

	claims := &auth.Claims{UserID: 1, Username: "admin", Role: "admin"}
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserClaimsKey, claims))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["username"] != "admin" || resp["role"] != "admin" {
		t.Errorf("resp = %v", resp)
	}
}

func TestMeWithoutClaims(t *testing.T) {
	h := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest("GET", "/api/auth/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
