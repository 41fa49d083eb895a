// Package ledger owns orders: creation, order and payment status transitions,
// customer balance payments and deletion. It keeps the money fields consistent.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/notify"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/refcode"
)

const maxOrderNumberAttempts = 10

type Service struct {
	db            *sql.DB
	dispatcher    *notify.Dispatcher
	businessEmail string
	newNumber     func() (string, error)
	now           func() time.Time
}

type Option func(*Service)

// WithOrderNumbers replaces the random order number source.
func WithOrderNumbers(fn func() (string, error)) Option {
	return func(s *Service) { s.newNumber = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a ledger. dispatcher may be nil, in which case no
// notifications are sent.
func NewService(db *sql.DB, dispatcher *notify.Dispatcher, businessEmail string, opts ...Option) *Service {
	s := &Service{
		db:            db,
		dispatcher:    dispatcher,
		businessEmail: businessEmail,
		newNumber:     refcode.New,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) notify(msgs ...notify.Message) {
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(msgs...)
	}
}

// CreateOrder validates the cart, stores a pending order and fires the
// confirmation and business alert without waiting for them.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (models.Order, error) {
	total, err := in.normalize()
	if err != nil {
		return models.Order{}, err
	}

	now := s.now().UTC()
	order := models.Order{
		ID:               uuid.NewString(),
		CustomerName:     in.CustomerName,
		CustomerEmail:    in.CustomerEmail,
		CustomerPhone:    in.CustomerPhone,
		PickupDate:       in.PickupDate,
		PickupTime:       in.PickupTime,
		Items:            in.Items,
		Subtotal:         total.InexactFloat64(),
		Total:            total.InexactFloat64(),
		RemainingBalance: total.InexactFloat64(),
		OrderStatus:      models.OrderPending,
		PaymentStatus:    models.PaymentPending,
		PaymentMethod:    in.PaymentMethod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.insertWithFreshNumber(ctx, &order); err != nil {
		return models.Order{}, err
	}

	log.Println("[ORDER] [INFO] order created:", order.OrderNumber)
	s.notify(notify.OrderConfirmation(order), notify.BusinessAlert(order, s.businessEmail))
	return order, nil
}

// insertWithFreshNumber draws order numbers until one is free. A draw that
// loses the race to a concurrent insert surfaces as a unique violation and is
// retried like any other collision.
func (s *Service) insertWithFreshNumber(ctx context.Context, order *models.Order) error {
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number, err := s.newNumber()
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}

		var taken int
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE order_number = ?`, number).Scan(&taken)
		if err != nil {
			return fmt.Errorf("check order number: %w", err)
		}
		if taken > 0 {
			continue
		}

		order.OrderNumber = number
		err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			return insertOrder(ctx, tx, *order)
		})
		if err == nil {
			return nil
		}
		if !database.IsUniqueViolation(err) {
			return fmt.Errorf("insert order: %w", err)
		}
		log.Printf("[ORDER] [WARN] order number %s collided on attempt %d", number, attempt)
	}

	order.OrderNumber = ""
	log.Println("[ORDER] [ERROR] order number space exhausted after", maxOrderNumberAttempts, "attempts")
	return ErrOrderNumberExhausted
}

func (s *Service) GetOrder(ctx context.Context, orderNumber string) (models.Order, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if !refcode.Valid(orderNumber) {
		return models.Order{}, ErrNotFound
	}
	return findOrder(ctx, s.db, "order_number", orderNumber)
}

func (s *Service) GetOrderByID(ctx context.Context, id string) (models.Order, error) {
	return findOrder(ctx, s.db, "id", id)
}

type OrderFilter struct {
	OrderStatus   string
	PaymentStatus string
	Search        string
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// ListOrders returns orders newest first. Legacy statuses are accepted as filters.
func (s *Service) ListOrders(ctx context.Context, f OrderFilter, page, limit int) (OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var (
		where []string
		args  []any
	)
	if st := strings.TrimSpace(f.OrderStatus); st != "" {
		where = append(where, "order_status = ?")
		args = append(args, strings.ToLower(st))
	}
	if st := strings.TrimSpace(f.PaymentStatus); st != "" {
		if _, err := ParsePaymentStatus(st); err != nil {
			return OrderPage{}, err
		}
		where = append(where, "payment_status = ?")
		args = append(args, strings.ToLower(st))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		where = append(where, "(order_number LIKE ? OR customer_email LIKE ? OR customer_name LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	result := OrderPage{Orders: []models.Order{}, Page: page, Limit: limit}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&result.Total); err != nil {
		return OrderPage{}, fmt.Errorf("count orders: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders`+clause+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return OrderPage{}, fmt.Errorf("scan order: %w", err)
		}
		result.Orders = append(result.Orders, o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return OrderPage{}, err
	}

	items, err := loadItems(ctx, s.db, ids)
	if err != nil {
		return OrderPage{}, err
	}
	for i := range result.Orders {
		result.Orders[i].Items = items[result.Orders[i].ID]
	}
	return result, nil
}

// TransitionOrderStatus moves an order along its lifecycle. Writing the current
// status again succeeds without touching the row.
func (s *Service) TransitionOrderStatus(ctx context.Context, id string, raw string) (models.Order, error) {
	to, err := ParseOrderStatus(raw)
	if err != nil {
		return models.Order{}, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT order_status FROM orders WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load order status: %w", err)
		}

		from := models.OrderStatus(current)
		if from == to {
			return nil
		}
		if !CanTransitionOrder(from, to) {
			return &TransitionError{Kind: "order status", From: current, To: string(to)}
		}

		_, err = tx.ExecContext(ctx, `UPDATE orders SET order_status = ?, updated_at = ? WHERE id = ?`,
			string(to), database.FormatTime(s.now()), id)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		log.Printf("[ORDER] [INFO] order %s status %s -> %s", id, from, to)
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	return s.GetOrderByID(ctx, id)
}

// TransitionPaymentStatus is the admin's manual payment update. Payment states
// only move forward. Marking an order paid requires the settlement method and
// zeroes the remaining balance.
func (s *Service) TransitionPaymentStatus(ctx context.Context, id string, raw string, method string) (models.Order, error) {
	to, err := ParsePaymentStatus(raw)
	if err != nil {
		return models.Order{}, err
	}

	var canonical string
	if strings.TrimSpace(method) != "" {
		m, ok := CanonicalMethod(method)
		if !ok {
			return models.Order{}, invalid("paymentMethod", "must be Cash, PayPal or Venmo")
		}
		canonical = m
	}
	if to == models.PaymentPaid && canonical == "" {
		return models.Order{}, invalid("paymentMethod", "is required when marking an order paid")
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			current string
			deposit float64
		)
		err := tx.QueryRowContext(ctx, `SELECT payment_status, deposit_amount FROM orders WHERE id = ?`, id).
			Scan(&current, &deposit)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load payment status: %w", err)
		}

		from := models.PaymentStatus(current)
		if from == to {
			return nil
		}
		if !CanTransitionPayment(from, to) {
			return &TransitionError{Kind: "payment status", From: current, To: string(to)}
		}

		now := database.FormatTime(s.now())
		switch to {
		case models.PaymentPaid:
			_, err = tx.ExecContext(ctx, `
				UPDATE orders SET payment_status = ?, balance_method = ?, remaining_balance = 0, updated_at = ?
				WHERE id = ?`, string(to), canonical, now, id)
		case models.PaymentDepositPaid:
			if deposit <= 0 && canonical != "" {
				_, err = tx.ExecContext(ctx, `
					UPDATE orders SET payment_status = ?, deposit_method = ?, updated_at = ? WHERE id = ?`,
					string(to), canonical, now, id)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?`,
					string(to), now, id)
			}
		}
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		log.Printf("[ORDER] [INFO] order %s payment %s -> %s", id, from, to)
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	return s.GetOrderByID(ctx, id)
}

type DepositInput struct {
	Amount        float64
	Method        string
	TransactionID string
	PayerEmail    string
}

// RecordDeposit captures the customer's first payment. Paying the full total
// (or more) settles the order outright.
func (s *Service) RecordDeposit(ctx context.Context, orderNumber string, in DepositInput) (models.Order, error) {
	method, ok := CanonicalMethod(in.Method)
	if !ok {
		return models.Order{}, invalid("paymentMethod", "must be Cash, PayPal or Venmo")
	}
	amount := decimal.NewFromFloat(in.Amount).Round(2)
	if !amount.IsPositive() {
		return models.Order{}, invalid("amount", "must be greater than zero")
	}
	payer := strings.ToLower(strings.TrimSpace(in.PayerEmail))
	if payer != "" && !ValidEmail(payer) {
		return models.Order{}, invalid("payerEmail", "must be a valid email address")
	}
	txID := strings.TrimSpace(in.TransactionID)

	order, err := s.GetOrder(ctx, orderNumber)
	if err != nil {
		return models.Order{}, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			status string
			total  float64
		)
		err := tx.QueryRowContext(ctx, `SELECT payment_status, total FROM orders WHERE id = ?`, order.ID).Scan(&status, &total)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		switch models.PaymentStatus(status) {
		case models.PaymentPaid:
			return ErrAlreadyPaid
		case models.PaymentDepositPaid:
			return ErrDepositRecorded
		}

		now := database.FormatTime(s.now())
		totalDec := decimal.NewFromFloat(total)
		if amount.GreaterThanOrEqual(totalDec) {
			_, err = tx.ExecContext(ctx, `
				UPDATE orders SET payment_status = 'paid', payment_method = ?, remaining_balance = 0,
					payment_transaction_id = ?, payer_email = ?, updated_at = ?
				WHERE id = ?`,
				method, txID, payer, now, order.ID)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE orders SET payment_status = 'deposit_paid', deposit_amount = ?, deposit_method = ?,
					remaining_balance = ?, payment_transaction_id = ?, deposit_transaction_id = ?,
					payer_email = ?, updated_at = ?
				WHERE id = ?`,
				amount.InexactFloat64(), method, totalDec.Sub(amount).Round(2).InexactFloat64(),
				txID, txID, payer, now, order.ID)
		}
		if err != nil {
			return fmt.Errorf("record deposit: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	log.Printf("[ORDER] [INFO] payment of %s via %s recorded for %s", amount.StringFixed(2), method, order.OrderNumber)
	return s.GetOrderByID(ctx, order.ID)
}

type BalancePayment struct {
	TransactionID string
	Method        string
	PayerEmail    string
}

// PayRemainingBalance settles whatever is owed on an order. It is reachable by
// anyone who knows the order number.
func (s *Service) PayRemainingBalance(ctx context.Context, orderNumber string, in BalancePayment) (models.Order, error) {
	txID := strings.TrimSpace(in.TransactionID)
	if txID == "" {
		return models.Order{}, invalid("transactionId", "is required")
	}
	method, ok := CanonicalMethod(in.Method)
	if !ok {
		return models.Order{}, invalid("paymentMethod", "must be Cash, PayPal or Venmo")
	}
	payer := strings.ToLower(strings.TrimSpace(in.PayerEmail))
	if payer != "" && !ValidEmail(payer) {
		return models.Order{}, invalid("payerEmail", "must be a valid email address")
	}

	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if !refcode.Valid(orderNumber) {
		return models.Order{}, ErrNotFound
	}

	// The deposit keeps its own transaction id and an omitted payer leaves the stored one.
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = 'paid', remaining_balance = 0, balance_method = ?,
			payment_transaction_id = ?, payer_email = COALESCE(NULLIF(?, ''), payer_email), updated_at = ?
		WHERE order_number = ? AND payment_status <> 'paid'`,
		method, txID, payer, database.FormatTime(s.now()), orderNumber)
	if err != nil {
		return models.Order{}, fmt.Errorf("pay balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Order{}, fmt.Errorf("pay balance: %w", err)
	}

	order, err := findOrder(ctx, s.db, "order_number", orderNumber)
	if err != nil {
		return models.Order{}, err
	}
	if n == 0 {
		return models.Order{}, ErrAlreadyPaid
	}

	log.Printf("[ORDER] [INFO] balance paid for %s via %s", orderNumber, method)
	s.notify(notify.BalancePaid(order))
	return order, nil
}

// DeleteOrder removes the order and its items for good.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	log.Println("[ORDER] [INFO] order deleted:", id)
	return nil
}
