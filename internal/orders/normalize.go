package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The exports this service ingests come in a few schema variants: the line
// value column is named price or total_value, the category column may be the
// english translation or missing outright, and some variants carry a stable
// customer_unique_id next to the per-order customer_id surrogate. All of that
// is resolved here, once, so the aggregators only ever see the canonical
// schema.

const (
	// CustomerKeyUnique means rows were keyed by a stable unique-customer
	// identifier.
	CustomerKeyUnique = "unique"
	// CustomerKeyOrderScoped means only the per-order customer surrogate was
	// available; distinct-customer counts may be inflated.
	CustomerKeyOrderScoped = "order-scoped"

	// UnknownCategory is the sentinel used when the source has no category
	// column or an empty category cell.
	UnknownCategory = "Unknown"
)

var (
	ErrEmptyInput     = errors.New("input has no data rows")
	ErrMissingHeader  = errors.New("input has no header row")
	errNoOrderColumn  = errors.New("no order_id column found")
	errNoCustomer     = errors.New("no customer_id or customer_unique_id column found")
	errNoTimestamp    = errors.New("no order_purchase_timestamp column found")
	errNoValueColumn  = errors.New("no line value column found (expected price or total_value)")
)

// column name variants per canonical field, in preference order
var (
	orderColumns     = []string{"order_id"}
	customerColumns  = []string{"customer_unique_id", "customer_id"}
	timestampColumns = []string{"order_purchase_timestamp", "purchase_timestamp"}
	categoryColumns  = []string{"product_category_name_english", "product_category_name", "category"}
	valueColumns     = []string{"price", "total_value", "line_value"}
	cityColumns      = []string{"customer_city"}
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
}

// NormalizeResult is a normalized dataset plus the schema facts the caller
// needs to interpret it.
type NormalizeResult struct {
	Lines       []OrderLine
	CustomerKey string
	HasCity     bool
}

// NormalizeRecords maps a raw header+rows table (as produced by the csv/xlsx
// readers) onto the canonical OrderLine schema. A row missing its purchase
// timestamp or line value rejects the whole input so aggregation totals stay
// auditable; it is never silently dropped. Output is sorted chronologically.
func NormalizeRecords(records [][]string) (*NormalizeResult, error) {
	if len(records) == 0 {
		return nil, ErrMissingHeader
	}
	if len(records) < 2 {
		return nil, ErrEmptyInput
	}

	header := records[0]
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[canonicalName(name)] = i
	}

	orderIdx, ok := findColumn(cols, orderColumns)
	if !ok {
		return nil, errNoOrderColumn
	}
	customerIdx, ok := findColumn(cols, customerColumns)
	if !ok {
		return nil, errNoCustomer
	}
	tsIdx, ok := findColumn(cols, timestampColumns)
	if !ok {
		return nil, errNoTimestamp
	}
	valueIdx, ok := findColumn(cols, valueColumns)
	if !ok {
		return nil, errNoValueColumn
	}
	categoryIdx, hasCategory := findColumn(cols, categoryColumns)
	cityIdx, hasCity := findColumn(cols, cityColumns)

	customerKey := CustomerKeyOrderScoped
	if _, ok := cols[customerColumns[0]]; ok {
		customerKey = CustomerKeyUnique
	}

	lines := make([]OrderLine, 0, len(records)-1)
	for n, row := range records[1:] {
		rowNum := n + 2 // 1-based, counting the header

		ts, err := parseTimestamp(cell(row, tsIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", rowNum, err)
		}
		value, err := parseLineValue(cell(row, valueIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", rowNum, err)
		}

		line := OrderLine{
			OrderID:           strings.TrimSpace(cell(row, orderIdx)),
			CustomerID:        strings.TrimSpace(cell(row, customerIdx)),
			PurchaseTimestamp: ts,
			Category:          UnknownCategory,
			LineValue:         value,
		}
		if line.OrderID == "" {
			return nil, fmt.Errorf("row %d: empty order_id", rowNum)
		}
		if line.CustomerID == "" {
			return nil, fmt.Errorf("row %d: empty customer identifier", rowNum)
		}
		if hasCategory {
			if cat := strings.TrimSpace(cell(row, categoryIdx)); cat != "" {
				line.Category = cat
			}
		}
		if hasCity {
			line.CustomerCity = strings.TrimSpace(cell(row, cityIdx))
		}
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].PurchaseTimestamp.Before(lines[j].PurchaseTimestamp)
	})

	return &NormalizeResult{
		Lines:       lines,
		CustomerKey: customerKey,
		HasCity:     hasCity,
	}, nil
}

func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func findColumn(cols map[string]int, variants []string) (int, bool) {
	for _, v := range variants {
		if i, ok := cols[v]; ok {
			return i, true
		}
	}
	return 0, false
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing order_purchase_timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func parseLineValue(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errors.New("missing line value")
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable line value %q", raw)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative line value %s", value)
	}
	return value, nil
}
