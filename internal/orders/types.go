package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is one purchased item line in the canonical schema. Uploads in any
// of the supported dataset variants are mapped onto this shape by the
// normalizer before anything else sees them.
type OrderLine struct {
	OrderID           string          `json:"order_id"`
	CustomerID        string          `json:"customer_id"`
	PurchaseTimestamp time.Time       `json:"order_purchase_timestamp"`
	Category          string          `json:"category"`
	LineValue         decimal.Decimal `json:"line_value"`
	CustomerCity      string          `json:"customer_city,omitempty"`
}

// DailyTrendPoint is one calendar day of sales activity. Days with no orders
// produce no point.
type DailyTrendPoint struct {
	Date       time.Time       `json:"date"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// CategoryPerformance is total revenue attributed to one product category.
type CategoryPerformance struct {
	Category     string          `json:"category"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// CityDistribution is the count of distinct customers seen in one city.
type CityDistribution struct {
	City          string `json:"city"`
	CustomerCount int    `json:"customer_count"`
}

// CustomerRFM holds the recency/frequency/monetary segmentation values for one
// customer. RecencyDays is measured against the reference date of the
// aggregation run, not wall-clock time.
type CustomerRFM struct {
	CustomerID       string          `json:"customer_id"`
	LastPurchaseDate time.Time       `json:"last_purchase_date"`
	Frequency        int             `json:"frequency"`
	Monetary         decimal.Decimal `json:"monetary"`
	RecencyDays      int             `json:"recency_days"`
}
