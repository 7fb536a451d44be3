// Package bigquery persists transactions, category lists and scan records in BigQuery.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dompet/internal/logger"
	"google.golang.org/api/googleapi"
)

const (
	transactionsTable = "transactions"
	categoriesTable   = "user_categories"
	modelOutputsTable = "model_outputs"
)

// Client wraps a BigQuery client bound to one dataset.
// It is shared by the repositories in this package.
type Client struct {
	bq        *bigquery.Client
	projectID string
	datasetID string
}

// NewClient creates a BigQuery client for the given project and dataset.
func NewClient(ctx context.Context, projectID, datasetID string) (*Client, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("NewClient: project and dataset are required")
	}
	bq, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewClient: bigquery client: %w", err)
	}
	return &Client{bq: bq, projectID: projectID, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (c *Client) Close() error {
	if c.bq != nil {
		return c.bq.Close()
	}
	return nil
}

// tableName returns the fully qualified, backquoted table name for use in SQL.
func (c *Client) tableName(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", c.projectID, c.datasetID, table)
}

func (c *Client) table(name string) *bigquery.Table {
	return c.bq.DatasetInProject(c.projectID, c.datasetID).Table(name)
}

// runDML runs a DML statement and waits for it to finish.
func (c *Client) runDML(ctx context.Context, op string, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

// EnsureTables creates the dataset tables that do not exist yet.
// Schemas are inferred from the row types in this package.
func (c *Client) EnsureTables(ctx context.Context) error {
	log := logger.FromContext(ctx)

	tables := []struct {
		name      string
		row       interface{}
		partition string
	}{
		{name: transactionsTable, row: TransactionRow{}, partition: "transaction_date"},
		{name: categoriesTable, row: CategoryRow{}},
		{name: modelOutputsTable, row: ModelOutputRow{}, partition: "created_ts"},
	}

	for _, t := range tables {
		tbl := c.table(t.name)
		_, err := tbl.Metadata(ctx)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return fmt.Errorf("EnsureTables: %s metadata: %w", t.name, err)
		}

		schema, err := bigquery.InferSchema(t.row)
		if err != nil {
			return fmt.Errorf("EnsureTables: %s schema: %w", t.name, err)
		}
		meta := &bigquery.TableMetadata{Schema: schema}
		if t.partition != "" {
			meta.TimePartitioning = &bigquery.TimePartitioning{Field: t.partition}
		}
		if err := tbl.Create(ctx, meta); err != nil {
			return fmt.Errorf("EnsureTables: create %s: %w", t.name, err)
		}
		log.Info().Str("table", t.name).Msg("Created BigQuery table")
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
