package ledger

import (
	"strings"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

// orderTransitions lists the allowed next states. States absent from the map
// are terminal.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderReady, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderPending, models.OrderReady, models.OrderCancelled},
	models.OrderReady:     {models.OrderPickedUp, models.OrderCancelled},
}

var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending:     {models.PaymentDepositPaid, models.PaymentPaid},
	models.PaymentDepositPaid: {models.PaymentPaid},
}

// ParseOrderStatus accepts only the statuses that may be written today.
func ParseOrderStatus(raw string) (models.OrderStatus, error) {
	switch s := models.OrderStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case models.OrderPending, models.OrderReady, models.OrderPickedUp, models.OrderCancelled:
		return s, nil
	default:
		return "", invalid("status", "must be one of pending, ready, picked_up, cancelled")
	}
}

func ParsePaymentStatus(raw string) (models.PaymentStatus, error) {
	switch s := models.PaymentStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case models.PaymentPending, models.PaymentDepositPaid, models.PaymentPaid:
		return s, nil
	default:
		return "", invalid("paymentStatus", "must be one of pending, deposit_paid, paid")
	}
}

func CanTransitionOrder(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanTransitionPayment(from, to models.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanonicalMethod maps case-insensitive input onto Cash, PayPal or Venmo.
func CanonicalMethod(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash":
		return models.MethodCash, true
	case "paypal":
		return models.MethodPayPal, true
	case "venmo":
		return models.MethodVenmo, true
	}
	return "", false
}
