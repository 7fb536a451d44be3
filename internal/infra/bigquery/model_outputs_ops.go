package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dompet/internal/scan"
)

// ModelOutputRepository stores scan audit records. It implements scan.Recorder.
type ModelOutputRepository struct {
	client *Client
}

// NewModelOutputRepository creates a repository on a shared client.
func NewModelOutputRepository(client *Client) *ModelOutputRepository {
	return &ModelOutputRepository{client: client}
}

// RecordScan inserts a single ModelOutputRow. Uses DML INSERT to avoid streaming buffer issues.
func (r *ModelOutputRepository) RecordScan(ctx context.Context, rec *scan.Record) error {
	row, err := recordToRow(rec)
	if err != nil {
		return fmt.Errorf("RecordScan: %w", err)
	}

	q := r.client.bq.Query(fmt.Sprintf(`
		INSERT INTO %s (
			output_id, user_id, receipt_uri,
			status, error, raw_json, created_ts
		)
		VALUES (
			@output_id, @user_id, @receipt_uri,
			@status, @error, PARSE_JSON(@raw_json), @created_ts
		)
	`, r.client.tableName(modelOutputsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "user_id", Value: row.UserID},
		{Name: "receipt_uri", Value: row.ReceiptURI},
		{Name: "status", Value: row.Status},
		{Name: "error", Value: row.Error},
		{Name: "raw_json", Value: bigquery.NullString{StringVal: row.RawJSON.JSONVal, Valid: row.RawJSON.Valid}},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	return r.client.runDML(ctx, "RecordScan", q)
}

var _ scan.Recorder = (*ModelOutputRepository)(nil)
