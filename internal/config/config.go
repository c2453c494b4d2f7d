package config

const (
	DefaultTimeZone        = "Australia/Sydney"
	DefaultDatasetPath     = "./data/main_data.csv"
	DefaultRefreshSchedule = "0 * * * *" // hourly dataset reload
	DefaultCurrency        = "AUD"

	// TopN is the size of every best/worst presentation cut on the dashboard.
	TopN = 5

	DefaultAnalyticsPort = 7143
	DefaultGatewayPort   = 8081
)
