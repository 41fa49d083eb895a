package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/ledger"
)

type orderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

func GetAllOrders(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders"
		defer handlePanic(c, route)

		page, err := pageFrom(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		result, err := svc.ListOrders(ctx, ledger.OrderFilter{
			OrderStatus:   c.Query("status"),
			PaymentStatus: c.Query("paymentStatus"),
			Search:        c.Query("search"),
		}, page.Page, page.Limit)
		if err != nil {
			respondLedgerError(c, route, err, true)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": result.Orders,
			"pagination": gin.H{
				"page":  result.Page,
				"limit": result.Limit,
				"total": result.Total,
			},
		})
	}
}

func GetOrderByID(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders/:id"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.GetOrderByID(ctx, c.Param("id"))
		if err != nil {
			respondLedgerError(c, route, err, true)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func UpdateOrderStatus(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/orders/:id/status"
		defer handlePanic(c, route)

		var req orderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.TransitionOrderStatus(ctx, c.Param("id"), req.Status)
		if err != nil {
			respondLedgerError(c, route, err, true)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func UpdatePaymentStatus(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/orders/:id/payment-status"
		defer handlePanic(c, route)

		var req paymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.TransitionPaymentStatus(ctx, c.Param("id"), req.PaymentStatus, req.PaymentMethod)
		if err != nil {
			respondLedgerError(c, route, err, true)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func DeleteOrder(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/orders/:id"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := svc.DeleteOrder(ctx, c.Param("id")); err != nil {
			respondLedgerError(c, route, err, true)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}
