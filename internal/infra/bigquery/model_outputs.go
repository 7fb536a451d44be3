package bigquery

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dompet/internal/scan"
)

// ModelOutputRow is the audit row written for every completed receipt scan.
type ModelOutputRow struct {
	OutputID string `bigquery:"output_id"` // REQUIRED
	UserID   string `bigquery:"user_id"`   // REQUIRED

	ReceiptURI bigquery.NullString `bigquery:"receipt_uri"` // NULLABLE, gs:// URI of the archived photo

	Status string              `bigquery:"status"` // REQUIRED, scan.Status
	Error  bigquery.NullString `bigquery:"error"`  // NULLABLE

	RawJSON bigquery.NullJSON `bigquery:"raw_json"` // NULLABLE, the decoded extraction result

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func recordToRow(rec *scan.Record) (*ModelOutputRow, error) {
	row := &ModelOutputRow{
		OutputID:   rec.ID,
		UserID:     rec.UserID,
		ReceiptURI: bigquery.NullString{StringVal: rec.ReceiptURI, Valid: rec.ReceiptURI != ""},
		Status:     string(rec.Status),
		Error:      bigquery.NullString{StringVal: rec.Error, Valid: rec.Error != ""},
		CreatedTS:  rec.CreatedAt.UTC(),
	}

	if rec.Result != nil {
		raw, err := json.Marshal(rec.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal extraction result: %w", err)
		}
		row.RawJSON = bigquery.NullJSON{JSONVal: string(raw), Valid: true}
	}
	return row, nil
}
