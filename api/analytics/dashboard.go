package analytics

import (
	"math"
	"net/http"
	"strings"
	"time"

	"EcomInsights/api"
	"EcomInsights/api/constants"
	"EcomInsights/internal/config"
	"EcomInsights/internal/orders"

	"github.com/shopspring/decimal"
)

const topN = config.TopN

// DashboardResponse is the one-shot payload backing the full dashboard: the
// headline metrics plus every chart cut the original screen renders.
type DashboardResponse struct {
	SnapshotID      string                       `json:"snapshot_id"`
	StartDate       string                       `json:"start_date"`
	EndDate         string                       `json:"end_date"`
	Metrics         HeadlineMetrics              `json:"metrics"`
	DailyTrend      []orders.DailyTrendPoint     `json:"daily_trend"`
	BestCategories  []orders.CategoryPerformance `json:"best_categories"`
	WorstCategories []orders.CategoryPerformance `json:"worst_categories"`
	CityAvailable   bool                         `json:"city_available"`
	TopCities       []orders.CityDistribution    `json:"top_cities,omitempty"`
	RFM             RFMSummary                   `json:"rfm"`
}

type HeadlineMetrics struct {
	TotalOrders  int    `json:"total_orders"`
	TotalRevenue string `json:"total_revenue"`
}

type RFMSummary struct {
	CustomerKey    string               `json:"customer_key"`
	ReferenceDate  string               `json:"reference_date,omitempty"`
	AvgRecencyDays float64              `json:"avg_recency_days"`
	AvgFrequency   float64              `json:"avg_frequency"`
	AvgMonetary    string               `json:"avg_monetary"`
	TopByRecency   []orders.CustomerRFM `json:"top_by_recency"`
	TopByFrequency []orders.CustomerRFM `json:"top_by_frequency"`
	TopByMonetary  []orders.CustomerRFM `json:"top_by_monetary"`
}

// Dashboard computes all four views over one filtered snapshot. Each builder
// is independent; they run sequentially here because a CSV-sized dataset
// aggregates in bounded time either way.
func Dashboard(store *orders.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rangeRequest
		if !decodeAndAuthorize(w, r, &req) {
			return
		}
		snap, ok := currentSnapshot(w, store)
		if !ok {
			return
		}
		start, end, errMsg := resolveRange(snap, &req)
		if errMsg != "" {
			api.RespondWithResult(w, false, errMsg)
			return
		}
		lines := orders.FilterByDateRange(snap.Lines, start, end)

		trend := orders.BuildDailyTrend(lines)
		perf := orders.BuildCategoryPerformance(lines)
		rfm, reference := orders.BuildRFM(lines)

		resp := DashboardResponse{
			SnapshotID:      snap.ID,
			StartDate:       start.Format(constants.DateFormat),
			EndDate:         end.Format(constants.DateFormat),
			Metrics:         headlineMetrics(trend),
			DailyTrend:      trend,
			BestCategories:  orders.TopCategories(perf, topN),
			WorstCategories: orders.BottomCategories(perf, topN),
			CityAvailable:   snap.HasCity,
			RFM:             rfmSummary(snap.CustomerKey, rfm, reference),
		}
		if snap.HasCity {
			resp.TopCities = orders.TopCities(orders.BuildCityDistribution(lines), topN)
		}

		api.RespondWithPayload(w, true, "", resp)
	}
}

// headlineMetrics derives the two top-of-page numbers from the daily trend,
// the same way the original dashboard sums its trend table.
func headlineMetrics(trend []orders.DailyTrendPoint) HeadlineMetrics {
	totalOrders := 0
	totalRevenue := decimal.Zero
	for _, p := range trend {
		totalOrders += p.OrderCount
		totalRevenue = totalRevenue.Add(p.Revenue)
	}
	return HeadlineMetrics{
		TotalOrders:  totalOrders,
		TotalRevenue: formatCurrency(totalRevenue),
	}
}

func rfmSummary(customerKey string, rfm []orders.CustomerRFM, reference time.Time) RFMSummary {
	summary := RFMSummary{
		CustomerKey:    customerKey,
		TopByRecency:   orders.TopByRecency(rfm, topN),
		TopByFrequency: orders.TopByFrequency(rfm, topN),
		TopByMonetary:  orders.TopByMonetary(rfm, topN),
	}
	if len(rfm) == 0 {
		summary.AvgMonetary = formatCurrency(decimal.Zero)
		return summary
	}

	recencySum, frequencySum := 0, 0
	monetarySum := decimal.Zero
	for _, c := range rfm {
		recencySum += c.RecencyDays
		frequencySum += c.Frequency
		monetarySum = monetarySum.Add(c.Monetary)
	}
	n := float64(len(rfm))
	summary.ReferenceDate = reference.Format(constants.DateFormat)
	summary.AvgRecencyDays = math.Round(float64(recencySum)/n*10) / 10
	summary.AvgFrequency = math.Round(float64(frequencySum)/n*100) / 100
	summary.AvgMonetary = formatCurrency(monetarySum.Div(decimal.NewFromInt(int64(len(rfm)))))
	return summary
}

// formatCurrency renders an amount as "AUD 1,234.56".
func formatCurrency(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	intPart, decPart := fixed, "00"
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, decPart = fixed[:i], fixed[i+1:]
	}

	if len(intPart) > 3 {
		var parts []string
		for len(intPart) > 3 {
			parts = append([]string{intPart[len(intPart)-3:]}, parts...)
			intPart = intPart[:len(intPart)-3]
		}
		parts = append([]string{intPart}, parts...)
		intPart = strings.Join(parts, ",")
	}

	result := config.DefaultCurrency + " " + intPart + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}
