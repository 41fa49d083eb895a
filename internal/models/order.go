package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderReady     OrderStatus = "ready"
	OrderPickedUp  OrderStatus = "picked_up"
	OrderCancelled OrderStatus = "cancelled"

	// Legacy values still present in old rows. They are read, never written.
	OrderConfirmed OrderStatus = "confirmed"
	OrderCompleted OrderStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "pending"
	PaymentDepositPaid PaymentStatus = "deposit_paid"
	PaymentPaid        PaymentStatus = "paid"
)

// Settlement channels recorded in deposit_method / balance_method.
const (
	MethodCash   = "Cash"
	MethodPayPal = "PayPal"
	MethodVenmo  = "Venmo"
)

// BoxItem is one treat inside a custom box. Boxes are priced on the parent line item.
type BoxItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderItem represents a single line within an order.
type OrderItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Category string    `json:"category,omitempty"`
	BoxItems []BoxItem `json:"boxItems,omitempty"`
}

// Order defines the persisted order row together with its line items.
type Order struct {
	ID                   string        `json:"id"`
	OrderNumber          string        `json:"orderNumber"`
	CustomerName         string        `json:"customerName"`
	CustomerEmail        string        `json:"customerEmail"`
	CustomerPhone        string        `json:"customerPhone,omitempty"`
	PickupDate           string        `json:"pickupDate"`
	PickupTime           string        `json:"pickupTime"`
	Items                []OrderItem   `json:"items"`
	Subtotal             float64       `json:"subtotal"`
	Total                float64       `json:"total"`
	DepositAmount        float64       `json:"depositAmount"`
	RemainingBalance     float64       `json:"remainingBalance"`
	OrderStatus          OrderStatus   `json:"orderStatus"`
	PaymentStatus        PaymentStatus `json:"paymentStatus"`
	PaymentMethod        string        `json:"paymentMethod"`
	DepositMethod        string        `json:"depositMethod,omitempty"`
	BalanceMethod        string        `json:"balanceMethod,omitempty"`
	PaymentTransactionID string        `json:"paymentTransactionId,omitempty"`
	DepositTransactionID string        `json:"depositTransactionId,omitempty"`
	PayerEmail           string        `json:"payerEmail,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}
