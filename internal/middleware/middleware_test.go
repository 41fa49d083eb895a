package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/deviceauth"
)

type stubAuthorizer struct {
	principal deviceauth.Principal
	err       error
	calls     int
}

func (s *stubAuthorizer) Authorize(_ context.Context, raw string) (deviceauth.Principal, error) {
	s.calls++
	return s.principal, s.err
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/admin/ping", func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"device": p.DeviceID})
	})
	return r
}

func TestAdminAuthStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized},
		{"invalid session", "Bearer abc", deviceauth.ErrSessionInvalid, http.StatusUnauthorized},
		{"revoked device", "Bearer abc", deviceauth.ErrDeviceRevoked, http.StatusForbidden},
		{"ok", "Bearer abc", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &stubAuthorizer{err: tt.err, principal: deviceauth.Principal{DeviceID: "d1"}}
			r := newRouter(AdminAuth(auth))

			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	r := newRouter(RequestID(), Logger())

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestRateLimiterBlocksBurstFromSameIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, time.Hour)
	r := newRouter(rl.Middleware())

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))

	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %d then %d", first.Code, second.Code)
	}
}

func TestRateLimiterTracksRoutesSeparately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, time.Hour)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Middleware())
	ok := func(c *gin.Context) { c.Status(http.StatusCreated) }
	r.POST("/orders", ok)
	r.POST("/orders/:orderNumber/deposit", ok)
	r.POST("/auth/register-device", ok)

	for _, path := range []string{"/orders", "/orders/JOY-ABCDEF/deposit", "/auth/register-device"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("POST %s: expected 201, got %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders/JOY-GHJKLM/deposit", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat deposit: expected 429, got %d", w.Code)
	}
}
