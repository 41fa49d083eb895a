package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database/dbtest"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/deviceauth"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/middleware"
)

const (
	testAdminEmail    = "owner@joy.test"
	testAdminPassword = "correct horse battery"
	testBootstrap     = "FIRST-DEVICE"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	db := dbtest.Open(t)
	if _, err := database.EnsureAdmin(context.Background(), db, testAdminEmail, testAdminPassword, "Owner"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	gate := deviceauth.NewGate(db, deviceauth.Config{
		JWTSecret:     "test-secret-test-secret-test-secret",
		BootstrapCode: testBootstrap,
	})

	r := gin.New()
	r.POST("/auth/login", AdminLogin(gate))
	r.POST("/auth/register-device", RegisterDevice(gate))

	admin := r.Group("/auth")
	admin.Use(middleware.AdminAuth(gate))
	{
		admin.GET("/verify", VerifySession(gate))
		admin.GET("/devices", ListDevices(gate))
		admin.POST("/devices/generate-code", GenerateDeviceCode(gate))
		admin.DELETE("/devices/:id", RevokeDevice(gate))
	}
	return r
}

func doAuthed(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type deviceSession struct {
	deviceID    string
	deviceToken string
	session     string
}

func registerAndLogin(t *testing.T, r http.Handler, code, name string) deviceSession {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/register-device", map[string]any{"code": code, "deviceName": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", name, w.Code, w.Body.String())
	}
	reg := decode(t, w)
	ds := deviceSession{
		deviceID:    reg["device"].(map[string]any)["id"].(string),
		deviceToken: reg["deviceToken"].(string),
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email": testAdminEmail, "password": testAdminPassword, "deviceToken": ds.deviceToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", name, w.Code, w.Body.String())
	}
	login := decode(t, w)
	ds.session = login["token"].(string)
	ds.deviceToken = login["newDeviceToken"].(string)
	return ds
}

func TestLoginStatusMapping(t *testing.T) {
	r := newAuthRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email": testAdminEmail, "password": testAdminPassword, "deviceToken": "unknown",
	})
	if w.Code != http.StatusUnauthorized || decode(t, w)["error"] != "this device is not registered" {
		t.Fatalf("unregistered device: expected 401, got %d (%s)", w.Code, w.Body.String())
	}

	first := registerAndLogin(t, r, testBootstrap, "Shop iPad")

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email": testAdminEmail, "password": "wrong", "deviceToken": first.deviceToken,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/register-device", map[string]any{"code": testBootstrap, "deviceName": "Sneaky"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second bootstrap: expected 409, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/auth/register-device", map[string]any{"code": "JOY-ZZZZZZ", "deviceName": "Sneaky"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown code: expected 404, got %d", w.Code)
	}
}

func TestDeviceManagementFlow(t *testing.T) {
	r := newAuthRouter(t)
	first := registerAndLogin(t, r, testBootstrap, "Shop iPad")

	w := doAuthed(t, r, http.MethodGet, "/auth/verify", first.session, nil)
	if w.Code != http.StatusOK || decode(t, w)["deviceId"] != first.deviceID {
		t.Fatalf("verify: got %d %s", w.Code, w.Body.String())
	}

	w = doAuthed(t, r, http.MethodPost, "/auth/devices/generate-code", first.session, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("generate code: expected 201, got %d", w.Code)
	}
	code := decode(t, w)["code"].(string)

	second := registerAndLogin(t, r, code, "Owner laptop")

	w = doJSON(t, r, http.MethodPost, "/auth/register-device", map[string]any{"code": code, "deviceName": "Reuse"})
	if w.Code != http.StatusConflict {
		t.Fatalf("reused code: expected 409, got %d", w.Code)
	}

	w = doAuthed(t, r, http.MethodGet, "/auth/devices", first.session, nil)
	if devices := decode(t, w)["devices"].([]any); len(devices) != 2 {
		t.Fatalf("expected two devices, got %d", len(devices))
	}

	w = doAuthed(t, r, http.MethodDelete, "/auth/devices/"+second.deviceID, first.session, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("revoke: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	w = doAuthed(t, r, http.MethodGet, "/auth/verify", second.session, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("revoked session: expected 403, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email": testAdminEmail, "password": testAdminPassword, "deviceToken": second.deviceToken,
	})
	if w.Code != http.StatusUnauthorized || decode(t, w)["error"] != "device has been revoked" {
		t.Fatalf("login from revoked device: expected 401, got %d (%s)", w.Code, w.Body.String())
	}

	w = doAuthed(t, r, http.MethodDelete, "/auth/devices/"+first.deviceID, first.session, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("last device: expected 409, got %d", w.Code)
	}
	w = doAuthed(t, r, http.MethodDelete, "/auth/devices/"+second.deviceID, first.session, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("already revoked: expected 409, got %d", w.Code)
	}
	w = doAuthed(t, r, http.MethodDelete, "/auth/devices/missing", first.session, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown device: expected 404, got %d", w.Code)
	}
}
