package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

const analyticsColumns = `id, period_type, period_start, period_end, total_orders, total_revenue,
	total_items_sold, orders_by_status, revenue_by_category, top_products, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalytics(row rowScanner) (models.OrderAnalytics, error) {
	var (
		a                         models.OrderAnalytics
		byStatus, byCategory, top string
		created                   string
	)
	err := row.Scan(&a.ID, &a.PeriodType, &a.PeriodStart, &a.PeriodEnd, &a.TotalOrders, &a.TotalRevenue,
		&a.TotalItemsSold, &byStatus, &byCategory, &top, &created)
	if err != nil {
		return models.OrderAnalytics{}, err
	}
	if err := json.Unmarshal([]byte(byStatus), &a.OrdersByStatus); err != nil {
		return models.OrderAnalytics{}, fmt.Errorf("decode orders_by_status: %w", err)
	}
	if err := json.Unmarshal([]byte(byCategory), &a.RevenueByCategory); err != nil {
		return models.OrderAnalytics{}, fmt.Errorf("decode revenue_by_category: %w", err)
	}
	if err := json.Unmarshal([]byte(top), &a.TopProducts); err != nil {
		return models.OrderAnalytics{}, fmt.Errorf("decode top_products: %w", err)
	}
	if a.CreatedAt, err = database.ParseTime(created); err != nil {
		return models.OrderAnalytics{}, err
	}
	return a, nil
}

// Historical returns up to the 24 most recent monthly rows, newest first.
func (a *Aggregator) Historical(ctx context.Context) ([]models.OrderAnalytics, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT `+analyticsColumns+`
		FROM order_analytics
		WHERE period_type = ?
		ORDER BY period_start DESC
		LIMIT ?`, periodTypeMonthly, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	out := []models.OrderAnalytics{}
	for rows.Next() {
		row, err := scanAnalytics(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Summary holds live figures over orders that have not been archived yet,
// plus the archived totals.
type Summary struct {
	TotalOrders      int            `json:"totalOrders"`
	OrdersByStatus   map[string]int `json:"ordersByStatus"`
	OrdersByPayment  map[string]int `json:"ordersByPayment"`
	Revenue          float64        `json:"revenue"`
	Collected        float64        `json:"collected"`
	Outstanding      float64        `json:"outstanding"`
	ArchivedOrders   int            `json:"archivedOrders"`
	ArchivedRevenue  float64        `json:"archivedRevenue"`
	ArchivedMonths   int            `json:"archivedMonths"`
	CancelledRevenue float64        `json:"cancelledRevenue"`
}

func (a *Aggregator) Summary(ctx context.Context) (Summary, error) {
	s := Summary{OrdersByStatus: map[string]int{}, OrdersByPayment: map[string]int{}}

	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(CASE WHEN order_status <> 'cancelled' THEN total - remaining_balance ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN order_status <> 'cancelled' AND payment_status <> 'paid' THEN remaining_balance ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN order_status = 'cancelled' THEN total ELSE 0 END), 0)
		FROM orders`).Scan(&s.TotalOrders, &s.Revenue, &s.Collected, &s.Outstanding, &s.CancelledRevenue)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize orders: %w", err)
	}

	for _, q := range []struct {
		column string
		into   map[string]int
	}{
		{"order_status", s.OrdersByStatus},
		{"payment_status", s.OrdersByPayment},
	} {
		rows, err := a.db.QueryContext(ctx, `SELECT `+q.column+`, COUNT(*) FROM orders GROUP BY `+q.column)
		if err != nil {
			return Summary{}, fmt.Errorf("group by %s: %w", q.column, err)
		}
		for rows.Next() {
			var (
				key string
				n   int
			)
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return Summary{}, err
			}
			q.into[key] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return Summary{}, err
		}
	}

	err = a.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_orders), 0), COALESCE(SUM(total_revenue), 0)
		FROM order_analytics WHERE period_type = ?`, periodTypeMonthly).
		Scan(&s.ArchivedMonths, &s.ArchivedOrders, &s.ArchivedRevenue)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize analytics: %w", err)
	}

	for _, v := range []*float64{&s.Revenue, &s.Collected, &s.Outstanding, &s.ArchivedRevenue, &s.CancelledRevenue} {
		*v = round2(*v)
	}
	return s, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
