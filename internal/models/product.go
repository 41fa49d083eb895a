package models

import "time"

type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	SaleEnabled    bool      `json:"saleEnabled"`
	SalePrice      float64   `json:"salePrice"`
	IsOnSale       bool      `json:"isOnSale"`
	EffectivePrice float64   `json:"effectivePrice"`
	CategorySlug   string    `json:"categorySlug"`
	Description    string    `json:"description,omitempty"`
	ImagePath      string    `json:"imagePath,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProductSales is one entry of a monthly top-products breakdown.
type ProductSales struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// OrderAnalytics is a monthly rollup of orders that were removed from the orders table.
type OrderAnalytics struct {
	ID                string             `json:"id"`
	PeriodType        string             `json:"periodType"`
	PeriodStart       string             `json:"periodStart"`
	PeriodEnd         string             `json:"periodEnd"`
	TotalOrders       int                `json:"totalOrders"`
	TotalRevenue      float64            `json:"totalRevenue"`
	TotalItemsSold    int                `json:"totalItemsSold"`
	OrdersByStatus    map[string]int     `json:"ordersByStatus"`
	RevenueByCategory map[string]float64 `json:"revenueByCategory"`
	TopProducts       []ProductSales     `json:"topProducts"`
	CreatedAt         time.Time          `json:"createdAt"`
}
