package analytics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"EcomInsights/api/auth"
	"EcomInsights/api/constants"
	"EcomInsights/internal/orders"

	"github.com/gorilla/mux"
)

const testUserID = "u-test-01"

// envelope mirrors the JSON response shape of every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Rows    json.RawMessage `json:"rows"`
}

const fixtureCSV = `order_id,customer_unique_id,order_purchase_timestamp,product_category_name_english,price,customer_city
o-1,cust-A,2024-01-01 10:00:00,X,10,sydney
o-1,cust-A,2024-01-01 10:00:00,Y,5,sydney
o-2,cust-B,2024-01-03 14:30:00,X,20,melbourne
`

const cityless = `order_id,customer_id,order_purchase_timestamp,category,total_value
o-1,c-1,2024-02-01,books,30
`

func seedAuth(t *testing.T) {
	t.Helper()
	svc := auth.NewAuthService(map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{
				"user_id":  testUserID,
				"username": "analyst",
				"password": "analyst",
				"name":     "Test Analyst",
			},
		},
	})
	auth.SetGlobalAuthService(svc)
	if _, err := svc.Login("analyst", "analyst", "127.0.0.1"); err != nil {
		t.Fatalf("seed login failed: %v", err)
	}
}

func newTestRouter(t *testing.T, data string) (*mux.Router, *orders.Store) {
	t.Helper()
	seedAuth(t)

	store := orders.NewStore()
	if data != "" {
		records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("bad CSV fixture: %v", err)
		}
		res, err := orders.NormalizeRecords(records)
		if err != nil {
			t.Fatalf("fixture normalization failed: %v", err)
		}
		store.Swap(orders.NewSnapshot("fixture", res))
	}
	return NewRouter(store), store
}

func postJSON(t *testing.T, router *mux.Router, path string, body map[string]interface{}) envelope {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response from %s: %v (body %q)", path, err, rr.Body.String())
	}
	return resp
}

func TestDashboardEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, fixtureCSV)

	resp := postJSON(t, router, "/analytics/dashboard", map[string]interface{}{
		"user_id": testUserID,
	})
	if !resp.Success {
		t.Fatalf("dashboard failed: %s", resp.Error)
	}

	var dash DashboardResponse
	if err := json.Unmarshal(resp.Rows, &dash); err != nil {
		t.Fatalf("decode dashboard payload: %v", err)
	}
	if dash.Metrics.TotalOrders != 2 {
		t.Errorf("total orders: got %d, want 2", dash.Metrics.TotalOrders)
	}
	if dash.Metrics.TotalRevenue != "AUD 35.00" {
		t.Errorf("total revenue: got %q", dash.Metrics.TotalRevenue)
	}
	if len(dash.DailyTrend) != 2 {
		t.Errorf("daily trend points: got %d, want 2", len(dash.DailyTrend))
	}
	if len(dash.BestCategories) == 0 || dash.BestCategories[0].Category != "X" {
		t.Errorf("best categories: %+v", dash.BestCategories)
	}
	if !dash.CityAvailable || len(dash.TopCities) != 2 {
		t.Errorf("city view: available=%v cities=%+v", dash.CityAvailable, dash.TopCities)
	}
	if dash.RFM.CustomerKey != orders.CustomerKeyUnique {
		t.Errorf("customer key: got %s", dash.RFM.CustomerKey)
	}
	if dash.RFM.ReferenceDate != "2024-01-03" {
		t.Errorf("reference date: got %s", dash.RFM.ReferenceDate)
	}
	if dash.StartDate != "2024-01-01" || dash.EndDate != "2024-01-03" {
		t.Errorf("range defaulting: got %s..%s", dash.StartDate, dash.EndDate)
	}
}

func TestDashboardDateRangeFilter(t *testing.T) {
	router, _ := newTestRouter(t, fixtureCSV)

	resp := postJSON(t, router, "/analytics/dashboard", map[string]interface{}{
		"user_id":    testUserID,
		"start_date": "2024-01-01",
		"end_date":   "2024-01-01",
	})
	if !resp.Success {
		t.Fatalf("dashboard failed: %s", resp.Error)
	}
	var dash DashboardResponse
	if err := json.Unmarshal(resp.Rows, &dash); err != nil {
		t.Fatalf("decode dashboard payload: %v", err)
	}
	if dash.Metrics.TotalOrders != 1 {
		t.Errorf("filtered total orders: got %d, want 1", dash.Metrics.TotalOrders)
	}
	if dash.Metrics.TotalRevenue != "AUD 15.00" {
		t.Errorf("filtered revenue: got %q", dash.Metrics.TotalRevenue)
	}
	// reference date is relative to the filtered data, not the whole snapshot
	if dash.RFM.ReferenceDate != "2024-01-01" {
		t.Errorf("filtered reference date: got %s", dash.RFM.ReferenceDate)
	}
}

func TestRejectsUnknownSession(t *testing.T) {
	router, _ := newTestRouter(t, fixtureCSV)

	resp := postJSON(t, router, "/analytics/daily-trend", map[string]interface{}{
		"user_id": "nobody",
	})
	if resp.Success || resp.Error != constants.ErrInvalidSession {
		t.Errorf("got success=%v error=%q", resp.Success, resp.Error)
	}
}

func TestRejectsMissingUserID(t *testing.T) {
	router, _ := newTestRouter(t, fixtureCSV)

	resp := postJSON(t, router, "/analytics/rfm", map[string]interface{}{})
	if resp.Success || resp.Error != constants.ErrMissingUserID {
		t.Errorf("got success=%v error=%q", resp.Success, resp.Error)
	}
}

func TestNoDatasetLoaded(t *testing.T) {
	router, _ := newTestRouter(t, "")

	resp := postJSON(t, router, "/analytics/dataset/bounds", map[string]interface{}{
		"user_id": testUserID,
	})
	if resp.Success || resp.Error != constants.ErrNoDataset {
		t.Errorf("got success=%v error=%q", resp.Success, resp.Error)
	}
}

func TestDateRangeValidation(t *testing.T) {
	router, _ := newTestRouter(t, fixtureCSV)

	cases := []struct {
		name       string
		start, end string
		wantErr    string
	}{
		{"start after end", "2024-01-03", "2024-01-01", constants.ErrInvalidDateRange},
		{"before dataset", "2023-12-01", "2024-01-03", constants.ErrDateOutOfBounds},
		{"after dataset", "2024-01-01", "2024-02-01", constants.ErrDateOutOfBounds},
		{"garbage date", "01/02/2024x", "2024-01-03", constants.ErrUnparseableDate},
	}
	for _, tc := range cases {
		resp := postJSON(t, router, "/analytics/daily-trend", map[string]interface{}{
			"user_id":    testUserID,
			"start_date": tc.start,
			"end_date":   tc.end,
		})
		if resp.Success || resp.Error != tc.wantErr {
			t.Errorf("%s: got success=%v error=%q, want %q", tc.name, resp.Success, resp.Error, tc.wantErr)
		}
	}
}

func TestCityDistributionNotApplicable(t *testing.T) {
	router, _ := newTestRouter(t, cityless)

	resp := postJSON(t, router, "/analytics/city-distribution", map[string]interface{}{
		"user_id": testUserID,
	})
	if !resp.Success {
		t.Fatalf("city endpoint failed: %s", resp.Error)
	}
	var payload struct {
		Applicable bool   `json:"applicable"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(resp.Rows, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Applicable {
		t.Error("cityless dataset reported as applicable")
	}
	if payload.Message != constants.ErrCityUnavailable {
		t.Errorf("message: got %q", payload.Message)
	}
}

func TestDatasetBounds(t *testing.T) {
	router, _ := newTestRouter(t, fixtureCSV)

	resp := postJSON(t, router, "/analytics/dataset/bounds", map[string]interface{}{
		"user_id": testUserID,
	})
	if !resp.Success {
		t.Fatalf("bounds failed: %s", resp.Error)
	}
	var payload struct {
		RowCount    int    `json:"row_count"`
		MinDate     string `json:"min_date"`
		MaxDate     string `json:"max_date"`
		CustomerKey string `json:"customer_key"`
		HasCity     bool   `json:"has_city"`
	}
	if err := json.Unmarshal(resp.Rows, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.RowCount != 3 {
		t.Errorf("row count: got %d", payload.RowCount)
	}
	if payload.MinDate != "2024-01-01" || payload.MaxDate != "2024-01-03" {
		t.Errorf("bounds: got %s..%s", payload.MinDate, payload.MaxDate)
	}
	if payload.CustomerKey != orders.CustomerKeyUnique || !payload.HasCity {
		t.Errorf("schema facts: key=%s has_city=%v", payload.CustomerKey, payload.HasCity)
	}
}

func TestUploadSwapsSnapshot(t *testing.T) {
	router, store := newTestRouter(t, fixtureCSV)
	before, _ := store.Current()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("user_id", testUserID); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "orders.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(cityless)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analytics/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	if !resp.Success {
		t.Fatalf("upload failed: %s", resp.Error)
	}

	after, ok := store.Current()
	if !ok || after.ID == before.ID {
		t.Fatal("upload did not swap in a new snapshot")
	}
	if len(after.Lines) != 1 || after.HasCity {
		t.Errorf("new snapshot: %d lines, has_city=%v", len(after.Lines), after.HasCity)
	}
}

func TestUploadRejectsBadRow(t *testing.T) {
	router, store := newTestRouter(t, fixtureCSV)
	before, _ := store.Current()

	bad := "order_id,customer_id,order_purchase_timestamp,price\no-1,c-1,not-a-date,5\n"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("user_id", testUserID)
	fw, _ := mw.CreateFormFile("file", "orders.csv")
	fw.Write([]byte(bad))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analytics/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Fatal("upload with unparseable row must be rejected")
	}
	if !strings.Contains(resp.Error, "row 2") {
		t.Errorf("error should name the offending row: %q", resp.Error)
	}

	// rejected upload must not disturb the active snapshot
	after, _ := store.Current()
	if after.ID != before.ID {
		t.Error("rejected upload replaced the snapshot")
	}
}
