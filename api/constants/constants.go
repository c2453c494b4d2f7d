package constants

// Common error messages
const (
	ErrInvalidSession     = "Your session has expired or is invalid. Please login again"
	ErrInvalidJSON        = "invalid json or missing fields"
	ErrInvalidJSONPrefix  = "Invalid JSON: "
	ErrMissingUserID      = "Missing or invalid user_id in body"
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrNoDataset          = "No dataset loaded yet. Upload a dataset or wait for the scheduled refresh"
	ErrCityUnavailable    = "This dataset variant has no customer_city column; city distribution is not applicable"
	ErrInvalidDateRange   = "Invalid date range: start_date must not be after end_date"
	ErrDateOutOfBounds    = "Requested date range falls outside the dataset bounds"
	ErrUnparseableDate    = "Unparseable date: expected YYYY-MM-DD"
	ErrUploadFileRequired = "No files uploaded"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "Content-Type"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
)
