package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/analytics"
)

// aggregationTimeout is longer than requestTimeout since the pass may touch
// many rows and compact the file.
const aggregationTimeout = 2 * time.Minute

type cleanupRequest struct {
	MonthsOld *int `json:"monthsOld"`
}

func CleanupOrders(agg *analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/maintenance/cleanup"
		defer handlePanic(c, route)

		var req cleanupRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidationError(c, route, err)
				return
			}
		}
		months := analytics.DefaultMonths
		if req.MonthsOld != nil {
			months = *req.MonthsOld
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), aggregationTimeout)
		defer cancel()

		result, err := agg.Aggregate(ctx, months)
		if errors.Is(err, analytics.ErrInvalidMonths) {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "aggregation failed")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func HistoricalAnalytics(agg *analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/analytics/historical"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		rows, err := agg.Historical(ctx)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func AnalyticsSummary(agg *analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/analytics/summary"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		summary, err := agg.Summary(ctx)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
