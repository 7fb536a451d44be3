package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/config"
	infraBQ "github.com/dvloznov/dompet/internal/infra/bigquery"
	"github.com/dvloznov/dompet/internal/ledger"
	"github.com/dvloznov/dompet/internal/logger"
	"github.com/dvloznov/dompet/internal/notionsync"
)

func main() {
	log := logger.New()

	// Parse CLI flags
	configPath := flag.String("config", "", "Path to a YAML config file")
	userID := flag.String("user", "", "User whose transactions are synced (required)")
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (default: first day of this month)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (default: last day of this month)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides notion.token)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides notion.database_id)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	prune := flag.Bool("prune", false, "Delete Notion pages whose transaction no longer exists")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	configured, err := logger.Configure(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log configuration")
	}
	log = configured

	if *notionToken == "" {
		*notionToken = cfg.Notion.Token
	}
	if *notionDBID == "" {
		*notionDBID = cfg.Notion.DatabaseID
	}

	// Validate required flags
	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token or notion.token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id or notion.database_id is required")
	}
	if !cfg.BigQuery.Enabled() {
		log.Fatal().Msg("Error: bigquery.project_id is required to read transactions")
	}

	// Parse dates
	loc, err := cfg.Scan.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}
	startDate, endDate := ledger.MonthRange(civil.DateOf(time.Now().In(loc)))
	if *startDateStr != "" {
		if startDate, err = civil.ParseDate(*startDateStr); err != nil {
			log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
		}
	}
	if *endDateStr != "" {
		if endDate, err = civil.ParseDate(*endDateStr); err != nil {
			log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
		}
	}

	// Validate date range
	if endDate.Before(startDate) {
		log.Fatal().
			Str("start_date", startDate.String()).
			Str("end_date", endDate.String()).
			Msg("Error: end-date must be after start-date")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, logger.WithUser(log, *userID))

	log.Info().
		Str("start_date", startDate.String()).
		Str("end_date", endDate.String()).
		Bool("dry_run", *dryRun).
		Bool("prune", *prune).
		Msg("Starting Notion sync")

	client, err := infraBQ.NewClient(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery client")
	}
	defer client.Close()

	ledgerSvc := ledger.NewService(
		infraBQ.NewTransactionRepository(client),
		categories.NewCache(infraBQ.NewCategoryRepository(client)),
	)
	syncer := notionsync.NewSyncer(ledgerSvc, notionsync.NewNotionClient(*notionToken), *notionDBID)

	res, err := syncer.SyncTransactions(ctx, *userID, startDate, endDate, notionsync.Options{
		DryRun: *dryRun,
		Prune:  *prune,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d skipped, %d deleted, %d failed.\n",
		res.Created, res.Skipped, res.Deleted, res.Failed)
}
