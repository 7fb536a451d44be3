package main

import (
	"context"
	"flag"
	"time"

	"github.com/dvloznov/dompet/internal/config"
	infraBQ "github.com/dvloznov/dompet/internal/infra/bigquery"
	"github.com/dvloznov/dompet/internal/logger"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", "", "Path to a YAML config file")
	projectID := flag.String("project", "", "GCP project ID (overrides bigquery.project_id)")
	datasetID := flag.String("dataset", "", "BigQuery dataset ID (overrides bigquery.dataset)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *projectID != "" {
		cfg.BigQuery.ProjectID = *projectID
	}
	if *datasetID != "" {
		cfg.BigQuery.Dataset = *datasetID
	}
	if !cfg.BigQuery.Enabled() {
		log.Fatal().Msg("Error: -project flag or bigquery.project_id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client, err := infraBQ.NewClient(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().
		Str("project", cfg.BigQuery.ProjectID).
		Str("dataset", cfg.BigQuery.Dataset).
		Msg("Ensuring tables")

	if err := client.EnsureTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Msg("Tables are up to date")
}
