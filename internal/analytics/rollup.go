package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

const (
	topProductLimit   = 10
	uncategorized     = "uncategorized"
	periodTypeMonthly = "monthly"
)

type productTally struct {
	id       string
	name     string
	quantity int
	revenue  decimal.Decimal
}

// monthTally accumulates one calendar month. Products keep first-seen order so
// ties in quantity rank by first appearance.
type monthTally struct {
	month      string
	orders     int
	revenue    decimal.Decimal
	itemsSold  int
	byStatus   map[string]int
	byCategory map[string]decimal.Decimal
	products   []*productTally
	productIdx map[string]*productTally
}

func newMonthTally(month string) *monthTally {
	return &monthTally{
		month:      month,
		byStatus:   map[string]int{},
		byCategory: map[string]decimal.Decimal{},
		productIdx: map[string]*productTally{},
	}
}

func (m *monthTally) addOrder(total float64, status string) {
	m.orders++
	m.revenue = m.revenue.Add(decimal.NewFromFloat(total))
	m.byStatus[status]++
}

func (m *monthTally) addProduct(id, name string, quantity int, revenue decimal.Decimal) {
	key := id
	if key == "" {
		key = name
	}
	p, ok := m.productIdx[key]
	if !ok {
		p = &productTally{id: key, name: name}
		m.productIdx[key] = p
		m.products = append(m.products, p)
	}
	p.quantity += quantity
	p.revenue = p.revenue.Add(revenue)
}

func (m *monthTally) addItem(id, name string, price float64, quantity int, category string) {
	if category == "" {
		category = uncategorized
	}
	line := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))

	m.itemsSold += quantity
	m.byCategory[category] = m.byCategory[category].Add(line)
	m.addProduct(id, name, quantity, line)
}

// mergeExisting folds a previously stored row for the same month into the
// tally. Stored products go first since they were sold earlier.
func (m *monthTally) mergeExisting(prev models.OrderAnalytics) {
	merged := newMonthTally(m.month)
	merged.orders = prev.TotalOrders + m.orders
	merged.revenue = decimal.NewFromFloat(prev.TotalRevenue).Add(m.revenue)
	merged.itemsSold = prev.TotalItemsSold + m.itemsSold

	for k, v := range prev.OrdersByStatus {
		merged.byStatus[k] += v
	}
	for k, v := range m.byStatus {
		merged.byStatus[k] += v
	}
	for k, v := range prev.RevenueByCategory {
		merged.byCategory[k] = merged.byCategory[k].Add(decimal.NewFromFloat(v))
	}
	for k, v := range m.byCategory {
		merged.byCategory[k] = merged.byCategory[k].Add(v)
	}
	for _, p := range prev.TopProducts {
		merged.addProduct(p.ID, p.Name, p.Quantity, decimal.NewFromFloat(p.Revenue))
	}
	for _, p := range m.products {
		merged.addProduct(p.id, p.name, p.quantity, p.revenue)
	}
	*m = *merged
}

func (m *monthTally) topProducts() []models.ProductSales {
	ranked := make([]*productTally, len(m.products))
	copy(ranked, m.products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].quantity > ranked[j].quantity
	})
	if len(ranked) > topProductLimit {
		ranked = ranked[:topProductLimit]
	}

	out := make([]models.ProductSales, 0, len(ranked))
	for _, p := range ranked {
		out = append(out, models.ProductSales{
			ID:       p.id,
			Name:     p.name,
			Quantity: p.quantity,
			Revenue:  p.revenue.Round(2).InexactFloat64(),
		})
	}
	return out
}

func (m *monthTally) categoryRevenue() map[string]float64 {
	out := make(map[string]float64, len(m.byCategory))
	for k, v := range m.byCategory {
		out[k] = v.Round(2).InexactFloat64()
	}
	return out
}
