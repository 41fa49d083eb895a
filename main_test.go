package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/config"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database/dbtest"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/notify"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	return newLimitedTestServer(t, 0)
}

func newLimitedTestServer(t *testing.T, window time.Duration) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a := newApp(ctx, dbtest.Open(t), config.Config{
		JWTSecret:       "test-secret-test-secret-test-secret",
		AccessTokenTTL:  time.Hour,
		BootstrapCode:   "FIRST",
		DeviceCodeTTL:   time.Minute,
		BusinessEmail:   "shop@example.com",
		RateLimitWindow: window,
	}, notify.LogNotifier{})
	t.Cleanup(a.dispatcher.Wait)
	return setupRouter(a)
}

func request(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireSession(t *testing.T) {
	r := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/admin/orders"},
		{http.MethodPatch, "/admin/orders/x/status"},
		{http.MethodPost, "/admin/maintenance/cleanup"},
		{http.MethodGet, "/admin/analytics/historical"},
		{http.MethodGet, "/auth/devices"},
		{http.MethodPost, "/auth/devices/generate-code"},
		{http.MethodDelete, "/admin/products/x"},
	} {
		if w := request(t, r, route.method, route.path, nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestPublicOrderFlow(t *testing.T) {
	r := newTestServer(t)

	if w := request(t, r, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}

	w := request(t, r, http.MethodPost, "/orders", map[string]any{
		"customerEmail": "ada@example.com",
		"pickupDate":    "2024-05-01",
		"pickupTime":    "10:00 AM",
		"items":         []map[string]any{{"id": "1", "name": "Cupcake", "price": 3.5, "quantity": 2}},
		"total":         7.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created struct {
		OrderNumber string `json:"orderNumber"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	pay := map[string]any{"transactionId": "TX-1", "paymentMethod": "PayPal"}
	if w := request(t, r, http.MethodPost, "/pay-balance/"+created.OrderNumber, pay); w.Code != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if w := request(t, r, http.MethodPost, "/orders/"+created.OrderNumber+"/pay-balance", pay); w.Code != http.StatusConflict {
		t.Fatalf("pay twice: expected 409, got %d", w.Code)
	}
}

func TestCheckoutStepsAreNotThrottledTogether(t *testing.T) {
	r := newLimitedTestServer(t, time.Hour)

	w := request(t, r, http.MethodPost, "/orders", map[string]any{
		"customerEmail": "ada@example.com",
		"pickupDate":    "2024-05-01",
		"pickupTime":    "10:00 AM",
		"items":         []map[string]any{{"id": "1", "name": "Cupcake", "price": 3.5, "quantity": 2}},
		"total":         7.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created struct {
		OrderNumber string `json:"orderNumber"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	deposit := map[string]any{"amount": 3.5, "paymentMethod": "Venmo", "transactionId": "TX-D"}
	if w := request(t, r, http.MethodPost, "/orders/"+created.OrderNumber+"/deposit", deposit); w.Code != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	register := map[string]any{"code": "FIRST", "deviceName": "Shop iPad"}
	if w := request(t, r, http.MethodPost, "/auth/register-device", register); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	if w := request(t, r, http.MethodPost, "/orders/"+created.OrderNumber+"/deposit", deposit); w.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat deposit: expected 429, got %d", w.Code)
	}
}
