package orders

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// The four builders below are pure functions over an already-filtered slice of
// order lines. Each groups in encounter order so repeated runs over the same
// input produce identical output, including decimal accumulation order.

// DayOf truncates a timestamp to its calendar day (midnight, same location).
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// BuildDailyTrend buckets lines by calendar day and returns one point per day
// that has at least one order, chronologically ascending. Order count is the
// number of distinct order IDs in the bucket, not the row count.
func BuildDailyTrend(lines []OrderLine) []DailyTrendPoint {
	type bucket struct {
		date    time.Time
		orders  map[string]struct{}
		revenue decimal.Decimal
	}

	byDay := make(map[string]*bucket)
	order := make([]string, 0)

	for _, line := range lines {
		day := DayOf(line.PurchaseTimestamp)
		key := day.Format("2006-01-02")
		b, ok := byDay[key]
		if !ok {
			b = &bucket{date: day, orders: make(map[string]struct{}), revenue: decimal.Zero}
			byDay[key] = b
			order = append(order, key)
		}
		b.orders[line.OrderID] = struct{}{}
		b.revenue = b.revenue.Add(line.LineValue)
	}

	points := make([]DailyTrendPoint, 0, len(order))
	for _, key := range order {
		b := byDay[key]
		points = append(points, DailyTrendPoint{
			Date:       b.date,
			OrderCount: len(b.orders),
			Revenue:    b.revenue,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// BuildCategoryPerformance sums line value per category and returns the
// categories sorted by revenue descending. Ties keep encounter order.
func BuildCategoryPerformance(lines []OrderLine) []CategoryPerformance {
	index := make(map[string]int)
	perf := make([]CategoryPerformance, 0)

	for _, line := range lines {
		i, ok := index[line.Category]
		if !ok {
			i = len(perf)
			index[line.Category] = i
			perf = append(perf, CategoryPerformance{Category: line.Category, TotalRevenue: decimal.Zero})
		}
		perf[i].TotalRevenue = perf[i].TotalRevenue.Add(line.LineValue)
	}

	sort.SliceStable(perf, func(i, j int) bool {
		return perf[i].TotalRevenue.GreaterThan(perf[j].TotalRevenue)
	})
	return perf
}

// TopCategories returns the first n entries of a descending-sorted performance
// table.
func TopCategories(perf []CategoryPerformance, n int) []CategoryPerformance {
	return headCategories(perf, n)
}

// BottomCategories re-sorts the table ascending (stable, so ties keep the
// descending order's arrangement) and returns the first n entries.
func BottomCategories(perf []CategoryPerformance, n int) []CategoryPerformance {
	asc := make([]CategoryPerformance, len(perf))
	copy(asc, perf)
	sort.SliceStable(asc, func(i, j int) bool {
		return asc[i].TotalRevenue.LessThan(asc[j].TotalRevenue)
	})
	return headCategories(asc, n)
}

func headCategories(perf []CategoryPerformance, n int) []CategoryPerformance {
	if n > len(perf) {
		n = len(perf)
	}
	out := make([]CategoryPerformance, n)
	copy(out, perf[:n])
	return out
}

// BuildCityDistribution counts distinct customers per city, in city encounter
// order. Callers skip this aggregator entirely when the dataset variant has no
// city column.
func BuildCityDistribution(lines []OrderLine) []CityDistribution {
	customers := make(map[string]map[string]struct{})
	order := make([]string, 0)

	for _, line := range lines {
		set, ok := customers[line.CustomerCity]
		if !ok {
			set = make(map[string]struct{})
			customers[line.CustomerCity] = set
			order = append(order, line.CustomerCity)
		}
		set[line.CustomerID] = struct{}{}
	}

	dist := make([]CityDistribution, 0, len(order))
	for _, city := range order {
		dist = append(dist, CityDistribution{City: city, CustomerCount: len(customers[city])})
	}
	return dist
}

// TopCities returns the n cities with the most distinct customers, descending,
// ties by encounter order.
func TopCities(dist []CityDistribution, n int) []CityDistribution {
	sorted := make([]CityDistribution, len(dist))
	copy(sorted, dist)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CustomerCount > sorted[j].CustomerCount
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// BuildRFM computes per-customer recency/frequency/monetary values, one entry
// per distinct customer in encounter order. Recency is measured in whole days
// against the returned reference date: the latest calendar day across the
// whole input, computed once per call. On empty input it returns nil and the
// zero time without touching the reference date.
func BuildRFM(lines []OrderLine) ([]CustomerRFM, time.Time) {
	if len(lines) == 0 {
		return nil, time.Time{}
	}

	type group struct {
		last     time.Time
		orders   map[string]struct{}
		monetary decimal.Decimal
	}

	groups := make(map[string]*group)
	order := make([]string, 0)
	var reference time.Time

	for _, line := range lines {
		day := DayOf(line.PurchaseTimestamp)
		if day.After(reference) {
			reference = day
		}
		g, ok := groups[line.CustomerID]
		if !ok {
			g = &group{orders: make(map[string]struct{}), monetary: decimal.Zero}
			groups[line.CustomerID] = g
			order = append(order, line.CustomerID)
		}
		if line.PurchaseTimestamp.After(g.last) {
			g.last = line.PurchaseTimestamp
		}
		g.orders[line.OrderID] = struct{}{}
		g.monetary = g.monetary.Add(line.LineValue)
	}

	rfm := make([]CustomerRFM, 0, len(order))
	for _, id := range order {
		g := groups[id]
		last := DayOf(g.last)
		rfm = append(rfm, CustomerRFM{
			CustomerID:       id,
			LastPurchaseDate: last,
			Frequency:        len(g.orders),
			Monetary:         g.monetary,
			RecencyDays:      wholeDays(last, reference),
		})
	}
	return rfm, reference
}

// wholeDays counts calendar days from one midnight-aligned date to another.
func wholeDays(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// TopByRecency returns the n customers with the smallest recency, ascending,
// ties by encounter order.
func TopByRecency(rfm []CustomerRFM, n int) []CustomerRFM {
	sorted := make([]CustomerRFM, len(rfm))
	copy(sorted, rfm)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecencyDays < sorted[j].RecencyDays
	})
	return headRFM(sorted, n)
}

// TopByFrequency returns the n customers with the most distinct orders,
// descending, ties by encounter order.
func TopByFrequency(rfm []CustomerRFM, n int) []CustomerRFM {
	sorted := make([]CustomerRFM, len(rfm))
	copy(sorted, rfm)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frequency > sorted[j].Frequency
	})
	return headRFM(sorted, n)
}

// TopByMonetary returns the n customers with the highest total spend,
// descending, ties by encounter order.
func TopByMonetary(rfm []CustomerRFM, n int) []CustomerRFM {
	sorted := make([]CustomerRFM, len(rfm))
	copy(sorted, rfm)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Monetary.GreaterThan(sorted[j].Monetary)
	})
	return headRFM(sorted, n)
}

func headRFM(rfm []CustomerRFM, n int) []CustomerRFM {
	if n > len(rfm) {
		n = len(rfm)
	}
	return rfm[:n]
}
