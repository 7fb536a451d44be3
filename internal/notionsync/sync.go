// Package notionsync exports ledger transactions into a Notion database.
package notionsync

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/logger"
	"github.com/jomei/notionapi"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100

	// pageSize is the Notion query page size (the API maximum).
	pageSize = 100
)

// Options controls a sync run.
type Options struct {
	// DryRun logs what would change without writing to Notion.
	DryRun bool
	// Prune archives pages of the same user and period whose transaction no longer exists.
	Prune bool
}

// Result counts what a sync run did.
type Result struct {
	Created int
	Skipped int
	Deleted int
	Failed  int
}

// Syncer copies transactions from the ledger to Notion.
type Syncer struct {
	ledger     TransactionLister
	notion     NotionService
	databaseID string
}

// NewSyncer creates a Syncer writing to databaseID.
func NewSyncer(ledger TransactionLister, notion NotionService, databaseID string) *Syncer {
	return &Syncer{ledger: ledger, notion: notion, databaseID: databaseID}
}

// SyncTransactions exports the user's transactions dated between from and to.
// The "Transaction ID" property makes the export idempotent: transactions
// that already have a page are skipped. Individual page failures are logged
// and counted but do not stop the run.
func (s *Syncer) SyncTransactions(ctx context.Context, userID string, from, to civil.Date, opts Options) (*Result, error) {
	log := logger.WithUser(logger.FromContext(ctx), userID)

	log.Info().
		Str("start_date", from.String()).
		Str("end_date", to.String()).
		Bool("dry_run", opts.DryRun).
		Bool("prune", opts.Prune).
		Msg("Starting transaction sync to Notion")

	transactions, err := s.ledger.List(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("SyncTransactions: query transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved transactions from ledger")

	valid := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		valid[tx.ID] = true
	}

	pages, err := queryUserPages(ctx, s.notion, s.databaseID, userID)
	if err != nil {
		return nil, fmt.Errorf("SyncTransactions: query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	existing := make(map[string]bool, len(pages))
	for _, page := range pages {
		if txID := extractTransactionID(page); txID != "" {
			existing[txID] = true
		}
	}

	res := &Result{}

	if opts.Prune {
		for _, page := range pages {
			txID := extractTransactionID(page)
			d, ok := extractDate(page)
			if txID == "" || valid[txID] || !ok || d.Before(from) || d.After(to) {
				continue
			}
			if opts.DryRun {
				log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would delete stale Notion page")
				res.Deleted++
				continue
			}
			if err := s.notion.DeletePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("Failed to delete stale Notion page")
				res.Failed++
				continue
			}
			res.Deleted++
		}
	}

	for i := 0; i < len(transactions); i += BatchSize {
		end := i + BatchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		batch := transactions[i:end]
		log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Processing batch")

		for _, tx := range batch {
			if existing[tx.ID] {
				res.Skipped++
				continue
			}
			if opts.DryRun {
				log.Info().Str("transaction_id", tx.ID).Msg("[DRY RUN] Would create new Notion page")
				res.Created++
				continue
			}

			page, err := s.notion.CreatePage(ctx, s.databaseID, TransactionToNotionProperties(tx))
			if err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
				res.Failed++
				continue
			}
			log.Debug().Str("transaction_id", tx.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
			res.Created++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Int("total", len(transactions)).
		Msg("Transaction sync completed")

	return res, nil
}

// queryUserPages pages through all database entries owned by userID.
func queryUserPages(ctx context.Context, notionClient NotionService, databaseID, userID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			Filter: &notionapi.PropertyFilter{
				Property: PropUser,
				RichText: &notionapi.TextFilterCondition{Equals: userID},
			},
			PageSize: pageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryUserPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
