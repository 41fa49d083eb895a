// Package analytics folds old orders into monthly summary rows and deletes the
// detail rows, and serves the historical and live dashboard figures.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
)

const (
	MinMonths     = 1
	MaxMonths     = 120
	historyLimit  = 24
	DefaultMonths = 6
)

var ErrInvalidMonths = fmt.Errorf("monthsOld must be between %d and %d", MinMonths, MaxMonths)

type Aggregator struct {
	db  *sql.DB
	now func() time.Time
	mu  sync.Mutex
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(db *sql.DB, opts ...Option) *Aggregator {
	a := &Aggregator{db: db, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type Result struct {
	Aggregated int `json:"aggregated"`
	Deleted    int `json:"deleted"`
}

// Cutoff is the first date whose orders are kept.
func (a *Aggregator) Cutoff(months int) string {
	now := a.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, -months, 0).Format("2006-01-02")
}

// Aggregate rolls every order created before the cutoff into its month's
// analytics row and deletes it. Reading, upserting and deleting share one
// transaction; the file is compacted after commit when rows were removed.
func (a *Aggregator) Aggregate(ctx context.Context, months int) (Result, error) {
	if months < MinMonths || months > MaxMonths {
		return Result{}, ErrInvalidMonths
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.Cutoff(months)
	var result Result

	err := database.WithTx(ctx, a.db, func(tx *sql.Tx) error {
		tallies, order, err := collectOrders(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		if len(order) == 0 {
			return nil
		}
		if err := collectItems(ctx, tx, cutoff, tallies); err != nil {
			return err
		}

		now := database.FormatTime(a.now())
		for _, month := range order {
			if err := upsertMonth(ctx, tx, tallies[month], now); err != nil {
				return err
			}
		}

		for _, month := range order {
			res, err := tx.ExecContext(ctx, `
				DELETE FROM orders
				WHERE substr(created_at, 1, 10) < ? AND substr(created_at, 1, 7) = ?`,
				cutoff, month)
			if err != nil {
				return fmt.Errorf("delete orders for %s: %w", month, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			result.Deleted += int(n)
		}
		result.Aggregated = len(order)
		return nil
	})
	if err != nil {
		log.Println("[ANALYTICS] [ERROR] aggregation rolled back:", err)
		return Result{}, err
	}

	if result.Deleted > 0 {
		if _, err := a.db.ExecContext(ctx, `VACUUM`); err != nil {
			log.Println("[ANALYTICS] [WARN] vacuum failed:", err)
		}
	}

	log.Printf("[ANALYTICS] [INFO] cutoff %s: %d months aggregated, %d orders deleted", cutoff, result.Aggregated, result.Deleted)
	return result, nil
}

// collectOrders groups orders older than cutoff by month. The returned slice
// lists months oldest first.
func collectOrders(ctx context.Context, tx *sql.Tx, cutoff string) (map[string]*monthTally, []string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT substr(created_at, 1, 7), total, order_status
		FROM orders
		WHERE substr(created_at, 1, 10) < ?
		ORDER BY created_at, id`, cutoff)
	if err != nil {
		return nil, nil, fmt.Errorf("select old orders: %w", err)
	}
	defer rows.Close()

	tallies := map[string]*monthTally{}
	var order []string
	for rows.Next() {
		var (
			month, status string
			total         float64
		)
		if err := rows.Scan(&month, &total, &status); err != nil {
			return nil, nil, fmt.Errorf("scan old order: %w", err)
		}
		t, ok := tallies[month]
		if !ok {
			t = newMonthTally(month)
			tallies[month] = t
			order = append(order, month)
		}
		t.addOrder(total, status)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	sort.Strings(order)
	return tallies, order, nil
}

// collectItems walks the line items of the same orders. A line without its own
// category falls back to the catalog product's category.
func collectItems(ctx context.Context, tx *sql.Tx, cutoff string, tallies map[string]*monthTally) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT substr(o.created_at, 1, 7), i.item_id, i.name, i.price, i.quantity,
			i.category, COALESCE(p.category_slug, '')
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		LEFT JOIN products p ON p.id = i.item_id
		WHERE substr(o.created_at, 1, 10) < ?
		ORDER BY o.created_at, o.id, i.position`, cutoff)
	if err != nil {
		return fmt.Errorf("select old order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			month, id, name, category, productCategory string
			price                                      float64
			quantity                                   int
		)
		if err := rows.Scan(&month, &id, &name, &price, &quantity, &category, &productCategory); err != nil {
			return fmt.Errorf("scan old order item: %w", err)
		}
		t, ok := tallies[month]
		if !ok {
			continue
		}
		if category == "" {
			category = productCategory
		}
		t.addItem(id, name, price, quantity, category)
	}
	return rows.Err()
}

func upsertMonth(ctx context.Context, tx *sql.Tx, t *monthTally, now string) error {
	start, err := time.Parse("2006-01", t.month)
	if err != nil {
		return fmt.Errorf("parse month %q: %w", t.month, err)
	}
	periodStart := start.Format("2006-01-02")
	periodEnd := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC).Format("2006-01-02")

	prev, err := scanAnalytics(tx.QueryRowContext(ctx, `SELECT `+analyticsColumns+`
		FROM order_analytics WHERE period_type = ? AND period_start = ?`, periodTypeMonthly, periodStart))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("load analytics for %s: %w", t.month, err)
	default:
		t.mergeExisting(prev)
		log.Printf("[ANALYTICS] [INFO] merging into existing row for %s", t.month)
	}

	byStatus, err := json.Marshal(t.byStatus)
	if err != nil {
		return err
	}
	byCategory, err := json.Marshal(t.categoryRevenue())
	if err != nil {
		return err
	}
	top, err := json.Marshal(t.topProducts())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_analytics (id, period_type, period_start, period_end, total_orders,
			total_revenue, total_items_sold, orders_by_status, revenue_by_category, top_products, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (period_type, period_start) DO UPDATE SET
			period_end = excluded.period_end,
			total_orders = excluded.total_orders,
			total_revenue = excluded.total_revenue,
			total_items_sold = excluded.total_items_sold,
			orders_by_status = excluded.orders_by_status,
			revenue_by_category = excluded.revenue_by_category,
			top_products = excluded.top_products,
			created_at = excluded.created_at`,
		uuid.NewString(), periodTypeMonthly, periodStart, periodEnd, t.orders,
		t.revenue.Round(2).InexactFloat64(), t.itemsSold, string(byStatus), string(byCategory), string(top), now)
	if err != nil {
		return fmt.Errorf("upsert analytics for %s: %w", t.month, err)
	}
	return nil
}
