package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

const orderColumns = `id, order_number, customer_name, customer_email, customer_phone,
	pickup_date, pickup_time, subtotal, total, deposit_amount, remaining_balance,
	order_status, payment_status, payment_method, deposit_method, balance_method,
	payment_transaction_id, deposit_transaction_id, payer_email, created_at, updated_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (models.Order, error) {
	var (
		o                models.Order
		orderStatus      string
		paymentStatus    string
		created, updated string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.PickupDate, &o.PickupTime, &o.Subtotal, &o.Total, &o.DepositAmount, &o.RemainingBalance,
		&orderStatus, &paymentStatus, &o.PaymentMethod, &o.DepositMethod, &o.BalanceMethod,
		&o.PaymentTransactionID, &o.DepositTransactionID, &o.PayerEmail, &created, &updated,
	)
	if err != nil {
		return models.Order{}, err
	}
	o.OrderStatus = models.OrderStatus(orderStatus)
	o.PaymentStatus = models.PaymentStatus(paymentStatus)
	if o.CreatedAt, err = database.ParseTime(created); err != nil {
		return models.Order{}, err
	}
	if o.UpdatedAt, err = database.ParseTime(updated); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// findOrder loads one order with its items. where is a single-column predicate.
func findOrder(ctx context.Context, q queryer, where string, arg any) (models.Order, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where+` = ?`, arg)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("load order: %w", err)
	}

	items, err := loadItems(ctx, q, []string{o.ID})
	if err != nil {
		return models.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// loadItems returns line items keyed by order id. The pool holds one connection,
// so every result set is drained before the next query starts.
func loadItems(ctx context.Context, q queryer, orderIDs []string) (map[string][]models.OrderItem, error) {
	out := make(map[string][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	type itemRef struct {
		orderID string
		index   int
	}
	refs := map[int64]itemRef{}

	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, item_id, name, price, quantity, category
		FROM order_items
		WHERE order_id IN (`+placeholders+`)
		ORDER BY order_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	for rows.Next() {
		var (
			rowID   int64
			orderID string
			it      models.OrderItem
		)
		if err := rows.Scan(&rowID, &orderID, &it.ID, &it.Name, &it.Price, &it.Quantity, &it.Category); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		refs[rowID] = itemRef{orderID: orderID, index: len(out[orderID])}
		out[orderID] = append(out[orderID], it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT c.order_item_id, c.content_id, c.name
		FROM order_box_contents c
		JOIN order_items i ON i.id = c.order_item_id
		WHERE i.order_id IN (`+placeholders+`)
		ORDER BY c.order_item_id, c.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("load box contents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			itemRowID int64
			box       models.BoxItem
		)
		if err := rows.Scan(&itemRowID, &box.ID, &box.Name); err != nil {
			return nil, fmt.Errorf("scan box content: %w", err)
		}
		ref, ok := refs[itemRowID]
		if !ok {
			continue
		}
		item := &out[ref.orderID][ref.index]
		item.BoxItems = append(item.BoxItems, box)
	}
	return out, rows.Err()
}

func insertOrder(ctx context.Context, tx *sql.Tx, o models.Order) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.PickupDate, o.PickupTime, o.Subtotal, o.Total, o.DepositAmount, o.RemainingBalance,
		string(o.OrderStatus), string(o.PaymentStatus), o.PaymentMethod, o.DepositMethod, o.BalanceMethod,
		o.PaymentTransactionID, o.DepositTransactionID, o.PayerEmail, database.FormatTime(o.CreatedAt), database.FormatTime(o.UpdatedAt),
	)
	if err != nil {
		return err
	}

	for pos, it := range o.Items {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, item_id, name, price, quantity, category)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, pos, it.ID, it.Name, it.Price, it.Quantity, it.Category)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		itemRowID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("order item id: %w", err)
		}
		for boxPos, box := range it.BoxItems {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_box_contents (order_item_id, position, content_id, name)
				VALUES (?, ?, ?, ?)`,
				itemRowID, boxPos, box.ID, box.Name)
			if err != nil {
				return fmt.Errorf("insert box content: %w", err)
			}
		}
	}
	return nil
}
