package analytics

import (
	"encoding/json"
	"net/http"
	"time"

	"EcomInsights/api"
	"EcomInsights/api/auth"
	"EcomInsights/api/constants"
	"EcomInsights/internal/orders"
)

// rangeRequest is the body of every data endpoint: who is asking and which
// inclusive date range they want. Omitted dates default to the dataset bounds.
type rangeRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// decodeAndAuthorize decodes the request body and validates the session.
// On failure it writes the error response and returns false.
func decodeAndAuthorize(w http.ResponseWriter, r *http.Request, req *rangeRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		api.RespondWithResult(w, false, constants.ErrInvalidJSONPrefix+err.Error())
		return false
	}
	if req.UserID == "" {
		api.RespondWithResult(w, false, constants.ErrMissingUserID)
		return false
	}

	valid := false
	for _, s := range auth.GetActiveSessions() {
		if s.UserID == req.UserID {
			valid = true
			break
		}
	}
	if !valid {
		api.RespondWithResult(w, false, constants.ErrInvalidSession)
		return false
	}
	return true
}

// currentSnapshot fetches the active dataset snapshot, answering the error
// response itself when nothing is loaded yet.
func currentSnapshot(w http.ResponseWriter, store *orders.Store) (*orders.Snapshot, bool) {
	snap, ok := store.Current()
	if !ok {
		api.RespondWithResult(w, false, constants.ErrNoDataset)
		return nil, false
	}
	return snap, true
}

// resolveRange turns the requested date strings into an inclusive [start, end]
// pair, defaulting to the snapshot bounds. Range validation happens here, at
// the call boundary, so the aggregation core never sees a malformed range.
func resolveRange(snap *orders.Snapshot, req *rangeRequest) (time.Time, time.Time, string) {
	start, end := snap.MinDate, snap.MaxDate

	if req.StartDate != "" {
		t, err := time.Parse(constants.DateFormat, req.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, constants.ErrUnparseableDate
		}
		start = t
	}
	if req.EndDate != "" {
		t, err := time.Parse(constants.DateFormat, req.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, constants.ErrUnparseableDate
		}
		end = t
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, constants.ErrInvalidDateRange
	}
	if len(snap.Lines) > 0 && (start.Before(snap.MinDate) || end.After(snap.MaxDate)) {
		return time.Time{}, time.Time{}, constants.ErrDateOutOfBounds
	}
	return start, end, ""
}

// filteredLines runs the shared decode → authorize → resolve → filter chain.
func filteredLines(w http.ResponseWriter, r *http.Request, store *orders.Store) (*orders.Snapshot, []orders.OrderLine, bool) {
	var req rangeRequest
	if !decodeAndAuthorize(w, r, &req) {
		return nil, nil, false
	}
	snap, ok := currentSnapshot(w, store)
	if !ok {
		return nil, nil, false
	}
	start, end, errMsg := resolveRange(snap, &req)
	if errMsg != "" {
		api.RespondWithResult(w, false, errMsg)
		return nil, nil, false
	}
	return snap, orders.FilterByDateRange(snap.Lines, start, end), true
}

// DatasetBounds returns snapshot metadata so the presentation layer can set
// up its date-range picker.
func DatasetBounds(store *orders.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rangeRequest
		if !decodeAndAuthorize(w, r, &req) {
			return
		}
		snap, ok := currentSnapshot(w, store)
		if !ok {
			return
		}
		api.RespondWithPayload(w, true, "", map[string]interface{}{
			"snapshot_id":  snap.ID,
			"source":       snap.Source,
			"loaded_at":    snap.LoadedAt.Format(time.RFC3339),
			"row_count":    len(snap.Lines),
			"min_date":     snap.MinDate.Format(constants.DateFormat),
			"max_date":     snap.MaxDate.Format(constants.DateFormat),
			"customer_key": snap.CustomerKey,
			"has_city":     snap.HasCity,
		})
	}
}

// DailyTrend returns the day-by-day order count and revenue series.
func DailyTrend(store *orders.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, lines, ok := filteredLines(w, r, store)
		if !ok {
			return
		}
		trend := orders.BuildDailyTrend(lines)
		api.RespondWithPayload(w, true, "", map[string]interface{}{
			"daily_trend": trend,
		})
	}
}

// CategoryPerformance returns per-category revenue with the best/worst cuts.
func CategoryPerformance(store *orders.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, lines, ok := filteredLines(w, r, store)
		if !ok {
			return
		}
		perf := orders.BuildCategoryPerformance(lines)
		api.RespondWithPayload(w, true, "", map[string]interface{}{
			"categories": perf,
			"best":       orders.TopCategories(perf, topN),
			"worst":      orders.BottomCategories(perf, topN),
		})
	}
}

// CityDistribution returns distinct customers per city. Dataset variants
// without a city column answer applicable=false rather than an error.
func CityDistribution(store *orders.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, lines, ok := filteredLines(w, r, store)
		if !ok {
			return
		}
		if !snap.HasCity {
			api.RespondWithPayload(w, true, "", map[string]interface{}{
				"applicable": false,
				"message":    constants.ErrCityUnavailable,
			})
			return
		}
		dist := orders.BuildCityDistribution(lines)
		api.RespondWithPayload(w, true, "", map[string]interface{}{
			"applicable": true,
			"cities":     dist,
			"top":        orders.TopCities(dist, topN),
		})
	}
}

// RFM returns the per-customer segmentation table with its three cuts.
func RFM(store *orders.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, lines, ok := filteredLines(w, r, store)
		if !ok {
			return
		}
		rfm, reference := orders.BuildRFM(lines)
		payload := map[string]interface{}{
			"customers":        rfm,
			"customer_key":     snap.CustomerKey,
			"top_by_recency":   orders.TopByRecency(rfm, topN),
			"top_by_frequency": orders.TopByFrequency(rfm, topN),
			"top_by_monetary":  orders.TopByMonetary(rfm, topN),
		}
		if len(rfm) > 0 {
			payload["reference_date"] = reference.Format(constants.DateFormat)
		}
		api.RespondWithPayload(w, true, "", payload)
	}
}
