package analytics

import (
	"encoding/csv"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"EcomInsights/api"
	"EcomInsights/api/auth"
	"EcomInsights/api/constants"
	"EcomInsights/internal/dashboard"
	"EcomInsights/internal/orders"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Helper: get file extension
func getFileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Helper: parse uploaded file into [][]string
func parseUploadFile(file multipart.File, ext string) ([][]string, error) {
	switch ext {
	case ".csv":
		r := csv.NewReader(file)
		return r.ReadAll()
	case ".xlsx":
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, err
		}
		sheet := f.GetSheetName(0)
		return f.GetRows(sheet)
	case ".xls":
		wb, err := xls.OpenReader(file, "utf-8")
		if err != nil {
			return nil, err
		}
		return wb.ReadAllCells(1 << 20), nil
	}
	return nil, errors.New("unsupported file type")
}

// UploadDataset replaces the active dataset snapshot with an uploaded export.
// The whole file either normalizes cleanly or is rejected; a partial dataset
// would make every aggregate silently wrong.
func UploadDataset(store *orders.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			api.RespondWithResult(w, false, "Failed to parse multipart form")
			return
		}

		userID := r.FormValue("user_id")
		if userID == "" {
			api.RespondWithResult(w, false, constants.ErrMissingUserID)
			return
		}
		valid := false
		for _, s := range auth.GetActiveSessions() {
			if s.UserID == userID {
				valid = true
				break
			}
		}
		if !valid {
			api.RespondWithResult(w, false, constants.ErrInvalidSession)
			return
		}

		if r.MultipartForm == nil || len(r.MultipartForm.File) == 0 {
			api.RespondWithResult(w, false, constants.ErrUploadFileRequired)
			return
		}

		var fileHeader *multipart.FileHeader
		for _, headers := range r.MultipartForm.File {
			if len(headers) > 0 {
				fileHeader = headers[0]
				break
			}
		}
		if fileHeader == nil {
			api.RespondWithResult(w, false, constants.ErrUploadFileRequired)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			api.RespondWithResult(w, false, "Failed to open file: "+fileHeader.Filename)
			return
		}
		records, err := parseUploadFile(file, getFileExt(fileHeader.Filename))
		file.Close()
		if err != nil {
			api.RespondWithResult(w, false, "Failed to read file "+fileHeader.Filename+": "+err.Error())
			return
		}

		res, err := orders.NormalizeRecords(records)
		if err != nil {
			api.RespondWithResult(w, false, "Rejected dataset "+fileHeader.Filename+": "+err.Error())
			return
		}

		snap := orders.NewSnapshot(fileHeader.Filename, res)
		store.Swap(snap)
		dashboard.BroadcastDatasetRefreshed(snap.ID, snap.Source, len(snap.Lines))
		api.LogInfo("Dataset %s loaded: %d rows, %s to %s", fileHeader.Filename, len(snap.Lines),
			snap.MinDate.Format(constants.DateFormat), snap.MaxDate.Format(constants.DateFormat))

		api.RespondWithPayload(w, true, "", map[string]interface{}{
			"snapshot_id":  snap.ID,
			"source":       snap.Source,
			"row_count":    len(snap.Lines),
			"min_date":     snap.MinDate.Format(constants.DateFormat),
			"max_date":     snap.MaxDate.Format(constants.DateFormat),
			"customer_key": snap.CustomerKey,
			"has_city":     snap.HasCity,
		})
	}
}
