package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/analytics"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database/dbtest"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/ledger"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

func TestCleanupArchivesOldOrders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)

	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	old := ledger.NewService(db, nil, "", ledger.WithClock(func() time.Time { return now.AddDate(0, -8, 0) }))
	if _, err := old.CreateOrder(context.Background(), ledger.CreateOrderInput{
		CustomerEmail: "ada@example.com",
		PickupDate:    "2023-11-20",
		PickupTime:    "9:00 AM",
		Items:         []models.OrderItem{{ID: "1", Name: "Brownie", Price: 4, Quantity: 3, Category: "bars"}},
		Total:         12,
	}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	agg := analytics.NewAggregator(db, analytics.WithClock(func() time.Time { return now }))
	r := gin.New()
	r.POST("/admin/maintenance/cleanup", CleanupOrders(agg))
	r.GET("/admin/analytics/historical", HistoricalAnalytics(agg))
	r.GET("/admin/analytics/summary", AnalyticsSummary(agg))

	w := doJSON(t, r, http.MethodPost, "/admin/maintenance/cleanup", map[string]any{"monthsOld": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("monthsOld=0: expected 400, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/admin/maintenance/cleanup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cleanup: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	result := decode(t, w)
	if result["aggregated"] != 1.0 || result["deleted"] != 1.0 {
		t.Fatalf("unexpected cleanup result %v", result)
	}

	w = doJSON(t, r, http.MethodGet, "/admin/analytics/historical", nil)
	rows := decode(t, w)["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected one monthly row, got %v", rows)
	}
	row := rows[0].(map[string]any)
	if row["periodStart"] != "2023-11-01" || row["totalRevenue"] != 12.0 {
		t.Fatalf("unexpected row %v", row)
	}

	w = doJSON(t, r, http.MethodGet, "/admin/analytics/summary", nil)
	summary := decode(t, w)
	if summary["totalOrders"] != 0.0 || summary["archivedOrders"] != 1.0 {
		t.Fatalf("unexpected summary %v", summary)
	}
}
