package orders

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"
)

// ============================================================================
// NORMALIZATION TESTS
// ============================================================================

func parseCSV(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(strings.TrimSpace(data))).ReadAll()
	if err != nil {
		t.Fatalf("bad CSV fixture: %v", err)
	}
	return records
}

func TestNormalizeFullSchema(t *testing.T) {
	records := parseCSV(t, `
order_id,customer_id,customer_unique_id,order_purchase_timestamp,product_category_name_english,price,customer_city
o-100,surrogate-1,cust-A,2024-01-02 10:30:00,electronics,199.90,sydney
o-101,surrogate-2,cust-B,2024-01-01 09:00:00,toys,25.00,melbourne
`)
	res, err := NormalizeRecords(records)
	if err != nil {
		t.Fatalf("NormalizeRecords: %v", err)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.CustomerKey != CustomerKeyUnique {
		t.Errorf("customer key: got %s, want %s", res.CustomerKey, CustomerKeyUnique)
	}
	if !res.HasCity {
		t.Error("city column not detected")
	}

	// sorted chronologically: o-101 (Jan 1) before o-100 (Jan 2)
	if res.Lines[0].OrderID != "o-101" {
		t.Errorf("output not chronological: first line is %s", res.Lines[0].OrderID)
	}
	// customer_unique_id wins over the per-order surrogate
	if res.Lines[1].CustomerID != "cust-A" {
		t.Errorf("customer id: got %s, want cust-A", res.Lines[1].CustomerID)
	}
	if res.Lines[1].Category != "electronics" {
		t.Errorf("category: got %s", res.Lines[1].Category)
	}
	assertDecimal(t, res.Lines[1].LineValue, "199.90", "line value")
	if res.Lines[0].CustomerCity != "melbourne" {
		t.Errorf("city: got %s", res.Lines[0].CustomerCity)
	}
}

func TestNormalizeTotalValueVariant(t *testing.T) {
	records := parseCSV(t, `
order_id,customer_id,order_purchase_timestamp,category,total_value
o-1,c-1,2024-03-01,books,12.50
`)
	res, err := NormalizeRecords(records)
	if err != nil {
		t.Fatalf("NormalizeRecords: %v", err)
	}
	if res.CustomerKey != CustomerKeyOrderScoped {
		t.Errorf("customer key: got %s, want %s", res.CustomerKey, CustomerKeyOrderScoped)
	}
	if res.HasCity {
		t.Error("city reported present on a cityless schema")
	}
	assertDecimal(t, res.Lines[0].LineValue, "12.50", "total_value variant")
}

func TestNormalizeMissingCategoryColumn(t *testing.T) {
	records := parseCSV(t, `
order_id,customer_id,order_purchase_timestamp,price
o-1,c-1,2024-03-01,5
`)
	res, err := NormalizeRecords(records)
	if err != nil {
		t.Fatalf("NormalizeRecords: %v", err)
	}
	if res.Lines[0].Category != UnknownCategory {
		t.Errorf("category: got %s, want %s", res.Lines[0].Category, UnknownCategory)
	}
}

func TestNormalizeEmptyCategoryCell(t *testing.T) {
	records := parseCSV(t, `
order_id,customer_id,order_purchase_timestamp,category,price
o-1,c-1,2024-03-01,,5
`)
	res, err := NormalizeRecords(records)
	if err != nil {
		t.Fatalf("NormalizeRecords: %v", err)
	}
	if res.Lines[0].Category != UnknownCategory {
		t.Errorf("category: got %s, want %s", res.Lines[0].Category, UnknownCategory)
	}
}

func TestNormalizeRejectsMissingTimestamp(t *testing.T) {
	records := parseCSV(t, `
order_id,customer_id,order_purchase_timestamp,price
o-1,c-1,2024-03-01,5
o-2,c-2,,7
`)
	_, err := NormalizeRecords(records)
	if err == nil {
		t.Fatal("expected rejection for missing timestamp")
	}
	// row 3 of the file (header is row 1)
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error should name the offending row: %v", err)
	}
}

func TestNormalizeRejectsBadValue(t *testing.T) {
	for _, bad := range []string{"abc", "-5", ""} {
		records := parseCSV(t, `
order_id,customer_id,order_purchase_timestamp,price
o-1,c-1,2024-03-01,`+bad+`
`)
		if _, err := NormalizeRecords(records); err == nil {
			t.Errorf("value %q: expected rejection", bad)
		}
	}
}

func TestNormalizeRejectsMissingColumns(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"no order id", "customer_id,order_purchase_timestamp,price", errNoOrderColumn},
		{"no customer", "order_id,order_purchase_timestamp,price", errNoCustomer},
		{"no timestamp", "order_id,customer_id,price", errNoTimestamp},
		{"no value", "order_id,customer_id,order_purchase_timestamp", errNoValueColumn},
	}
	for _, tc := range cases {
		records := parseCSV(t, tc.header+"\na,b,c")
		_, err := NormalizeRecords(records)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if _, err := NormalizeRecords(nil); !errors.Is(err, ErrMissingHeader) {
		t.Errorf("nil records: got %v", err)
	}
	headerOnly := parseCSV(t, "order_id,customer_id,order_purchase_timestamp,price")
	if _, err := NormalizeRecords(headerOnly); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("header-only: got %v", err)
	}
}

func TestNormalizeDateLayouts(t *testing.T) {
	for _, ts := range []string{
		"2024-06-15 08:00:00",
		"2024-06-15T08:00:00",
		"2024-06-15",
		"15-06-2024",
		"2024/06/15",
	} {
		records := parseCSV(t, `
order_id,customer_id,order_purchase_timestamp,price
o-1,c-1,`+ts+`,1
`)
		res, err := NormalizeRecords(records)
		if err != nil {
			t.Errorf("layout %q rejected: %v", ts, err)
			continue
		}
		got := res.Lines[0].PurchaseTimestamp
		if got.Year() != 2024 || got.Month() != 6 || got.Day() != 15 {
			t.Errorf("layout %q parsed to %v", ts, got)
		}
	}
}

func TestNormalizeHeaderCaseInsensitive(t *testing.T) {
	records := parseCSV(t, `
Order_ID,Customer_ID,Order_Purchase_Timestamp,Price
o-1,c-1,2024-03-01,5
`)
	if _, err := NormalizeRecords(records); err != nil {
		t.Fatalf("mixed-case header rejected: %v", err)
	}
}
