package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/api/middleware"
)

// maxBodyBytes bounds request bodies. Receipt photos arrive base64 encoded.
const maxBodyBytes = 15 << 20

// decodeBody decodes a JSON request body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// dateRange reads start_date and end_date (YYYY-MM-DD). Missing values default to
// the month containing today.
func dateRange(r *http.Request, today civil.Date) (from, to civil.Date, ok bool) {
	query := r.URL.Query()

	from = civil.Date{Year: today.Year, Month: today.Month, Day: 1}
	to = civil.DateOf(time.Date(today.Year, today.Month+1, 0, 0, 0, 0, 0, time.UTC))

	if s := query.Get("start_date"); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return civil.Date{}, civil.Date{}, false
		}
		from = d
	}
	if s := query.Get("end_date"); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return civil.Date{}, civil.Date{}, false
		}
		to = d
	}
	return from, to, true
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
