package analytics

import (
	"fmt"
	"log"
	"net/http"

	"EcomInsights/internal/orders"

	"github.com/gorilla/mux"
)

// NewRouter wires the analytics endpoints. Every data endpoint is POST JSON
// carrying user_id; routes stay separate so the presentation layer can fetch
// one view without recomputing the rest.
func NewRouter(store *orders.Store) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/analytics/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Analytics Service"))
	}).Methods("GET")

	router.HandleFunc("/analytics/upload", UploadDataset(store)).Methods("POST")
	router.HandleFunc("/analytics/dataset/bounds", DatasetBounds(store)).Methods("POST")
	router.HandleFunc("/analytics/daily-trend", DailyTrend(store)).Methods("POST")
	router.HandleFunc("/analytics/category-performance", CategoryPerformance(store)).Methods("POST")
	router.HandleFunc("/analytics/city-distribution", CityDistribution(store)).Methods("POST")
	router.HandleFunc("/analytics/rfm", RFM(store)).Methods("POST")
	router.HandleFunc("/analytics/dashboard", Dashboard(store)).Methods("POST")

	return router
}

func StartAnalyticsService(port int, store *orders.Store) {
	router := NewRouter(store)
	log.Printf("Analytics Service started on :%d", port)
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), router)
	if err != nil {
		log.Fatalf("Analytics Service failed: %v", err)
	}
}
