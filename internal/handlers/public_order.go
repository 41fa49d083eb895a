package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/ledger"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

type boxItemRequest struct {
	ID   string `json:"id"`
	Name string `json:"name" binding:"required"`
}

type createOrderItemRequest struct {
	ID       string           `json:"id"`
	Name     string           `json:"name" binding:"required"`
	Price    float64          `json:"price" binding:"gt=0"`
	Quantity int              `json:"quantity" binding:"gte=1"`
	Category string           `json:"category"`
	BoxItems []boxItemRequest `json:"boxItems" binding:"omitempty,dive"`
}

type createOrderRequest struct {
	CustomerName  string                   `json:"customerName"`
	CustomerEmail string                   `json:"customerEmail" binding:"required,email"`
	CustomerPhone string                   `json:"customerPhone" binding:"omitempty,usphone"`
	PickupDate    string                   `json:"pickupDate" binding:"required"`
	PickupTime    string                   `json:"pickupTime" binding:"required"`
	Items         []createOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Total         *float64                 `json:"total" binding:"required"`
	PaymentMethod string                   `json:"paymentMethod"`
}

type depositRequest struct {
	Amount        float64 `json:"amount" binding:"gt=0"`
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
	TransactionID string  `json:"transactionId"`
	PayerEmail    string  `json:"payerEmail" binding:"omitempty,email"`
}

type payBalanceRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	PayerEmail    string `json:"payerEmail" binding:"omitempty,email"`
}

func (r createOrderRequest) toInput() ledger.CreateOrderInput {
	items := make([]models.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		item := models.OrderItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Category: it.Category,
		}
		for _, box := range it.BoxItems {
			item.BoxItems = append(item.BoxItems, models.BoxItem{ID: box.ID, Name: box.Name})
		}
		items = append(items, item)
	}

	return ledger.CreateOrderInput{
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		PickupDate:    r.PickupDate,
		PickupTime:    r.PickupTime,
		Items:         items,
		Total:         *r.Total,
		PaymentMethod: r.PaymentMethod,
	}
}

// respondLedgerError maps ledger errors onto statuses. Customer routes get
// generic wording.
func respondLedgerError(c *gin.Context, route string, err error, admin bool) {
	var validationErr *ledger.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondWithError(c, http.StatusBadRequest, route, validationErr.Error())
	case errors.Is(err, ledger.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "order not found")
	case errors.Is(err, ledger.ErrAlreadyPaid):
		respondWithError(c, http.StatusConflict, route, "order already paid")
	case errors.Is(err, ledger.ErrDepositRecorded):
		respondWithError(c, http.StatusConflict, route, "deposit already recorded")
	case errors.Is(err, ledger.ErrInvalidTransition):
		if admin {
			respondWithError(c, http.StatusConflict, route, err.Error())
			return
		}
		respondWithError(c, http.StatusConflict, route, "order cannot be updated")
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
	default:
		log.Printf("[%s] [ERROR] %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

// orderSummary is the customer-facing view of an order. Contact and payer
// details are left out since anyone holding the order number can read it.
func orderSummary(o models.Order) gin.H {
	return gin.H{
		"orderNumber":      o.OrderNumber,
		"customerName":     o.CustomerName,
		"pickupDate":       o.PickupDate,
		"pickupTime":       o.PickupTime,
		"items":            o.Items,
		"subtotal":         o.Subtotal,
		"total":            o.Total,
		"depositAmount":    o.DepositAmount,
		"remainingBalance": o.RemainingBalance,
		"orderStatus":      o.OrderStatus,
		"paymentStatus":    o.PaymentStatus,
		"createdAt":        o.CreatedAt,
	}
}

func CreateOrder(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.CreateOrder(ctx, req.toInput())
		if err != nil {
			respondLedgerError(c, route, err, false)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderNumber": order.OrderNumber,
			"orderId":     order.ID,
			"total":       order.Total,
		})
	}
}

func GetOrder(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderNumber"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.GetOrder(ctx, c.Param("orderNumber"))
		if err != nil {
			respondLedgerError(c, route, err, false)
			return
		}
		c.JSON(http.StatusOK, orderSummary(order))
	}
}

func RecordDeposit(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderNumber/deposit"
		defer handlePanic(c, route)

		var req depositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.RecordDeposit(ctx, c.Param("orderNumber"), ledger.DepositInput{
			Amount:        req.Amount,
			Method:        req.PaymentMethod,
			TransactionID: req.TransactionID,
			PayerEmail:    req.PayerEmail,
		})
		if err != nil {
			respondLedgerError(c, route, err, false)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderNumber":      order.OrderNumber,
			"paymentStatus":    order.PaymentStatus,
			"depositAmount":    order.DepositAmount,
			"remainingBalance": order.RemainingBalance,
		})
	}
}

// PayBalance is deliberately unauthenticated: knowing the order number is enough.
func PayBalance(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderNumber/pay-balance"
		defer handlePanic(c, route)

		var req payBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.PayRemainingBalance(ctx, c.Param("orderNumber"), ledger.BalancePayment{
			TransactionID: req.TransactionID,
			Method:        req.PaymentMethod,
			PayerEmail:    req.PayerEmail,
		})
		if err != nil {
			respondLedgerError(c, route, err, false)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":          "balance paid",
			"orderNumber":      order.OrderNumber,
			"paymentStatus":    order.PaymentStatus,
			"remainingBalance": order.RemainingBalance,
		})
	}
}
