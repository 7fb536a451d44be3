package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/dompet/internal/advisor"
	"github.com/dvloznov/dompet/internal/api"
	"github.com/dvloznov/dompet/internal/api/handlers"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/config"
	"github.com/dvloznov/dompet/internal/extraction"
	"github.com/dvloznov/dompet/internal/gemini"
	infraBQ "github.com/dvloznov/dompet/internal/infra/bigquery"
	jobsmem "github.com/dvloznov/dompet/internal/jobs/inmemory"
	"github.com/dvloznov/dompet/internal/ledger"
	"github.com/dvloznov/dompet/internal/logger"
	"github.com/dvloznov/dompet/internal/receipts"
	"github.com/dvloznov/dompet/internal/reconcile"
	"github.com/dvloznov/dompet/internal/scan"
	"github.com/dvloznov/dompet/internal/store/inmemory"
	"github.com/rs/zerolog"
)

// stores bundles the persistence backends chosen at startup.
type stores struct {
	ledger     ledger.Store
	categories categories.Store
	recorder   scan.Recorder
	close      func() error
}

// openStores uses BigQuery when a project is configured and process memory otherwise.
func openStores(ctx context.Context, cfg config.BigQueryConfig, log zerolog.Logger) (*stores, error) {
	if !cfg.Enabled() {
		log.Warn().Msg("No BigQuery project configured - data is kept in memory only")
		mem := inmemory.NewStore()
		return &stores{
			ledger:     mem,
			categories: mem,
			recorder:   mem,
			close:      func() error { return nil },
		}, nil
	}

	client, err := infraBQ.NewClient(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureTables(ctx); err != nil {
		client.Close()
		return nil, err
	}
	log.Info().Str("project", cfg.ProjectID).Str("dataset", cfg.Dataset).Msg("Using BigQuery storage")

	return &stores{
		ledger:     infraBQ.NewTransactionRepository(client),
		categories: infraBQ.NewCategoryRepository(client),
		recorder:   infraBQ.NewModelOutputRepository(client),
		close:      client.Close,
	}, nil
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.Configure(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(context.Background(), log)

	st, err := openStores(ctx, cfg.BigQuery, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer st.close()

	genaiClient, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return err
	}

	loc, err := cfg.Scan.Location()
	if err != nil {
		return err
	}
	engine := reconcile.NewEngine(
		reconcile.WithLocation(loc),
		reconcile.WithPlaceholder(cfg.Scan.DescriptionPlaceholder),
	)
	extractor := extraction.NewGeminiExtractor(genaiClient.Models,
		extraction.WithModel(cfg.Gemini.Model),
		extraction.WithTimeout(cfg.Gemini.Timeout),
		extraction.WithLocation(loc),
	)
	cache := categories.NewCache(st.categories)

	scanOpts := []scan.Option{scan.WithRecorder(st.recorder)}
	if cfg.Storage.ReceiptBucket == "" {
		log.Warn().Msg("No receipt bucket configured - receipt photos will not be archived")
	} else {
		archive, err := receipts.NewArchive(ctx, cfg.Storage.ReceiptBucket)
		if err != nil {
			return err
		}
		defer archive.Close()
		scanOpts = append(scanOpts, scan.WithArchive(archive))
	}
	scans := scan.NewService(extractor, cache, engine, scanOpts...)
	ledgerSvc := ledger.NewService(st.ledger, cache)

	// Initialize job infrastructure
	jobStore := jobsmem.NewStore()
	jobQueue := jobsmem.NewQueue(cfg.Jobs.Buffer, jobStore,
		jobsmem.WithWorkers(cfg.Jobs.Workers),
		jobsmem.WithMaxRetries(cfg.Jobs.MaxRetries),
	)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	adv := advisor.New(genaiClient.Models, cfg.Gemini.Model, cfg.Gemini.Timeout)
	log.Info().Int("workers", cfg.Jobs.Workers).Msg("Starting advice workers")
	if err := jobQueue.Start(workerCtx, adv.JobHandler(ledgerSvc)); err != nil {
		return fmt.Errorf("start job queue: %w", err)
	}

	handler := api.NewRouter(api.Handlers{
		Scans:        handlers.NewScansHandler(scans),
		Amounts:      handlers.NewAmountsHandler(),
		Categories:   handlers.NewCategoriesHandler(cache),
		Transactions: handlers.NewTransactionsHandler(ledgerSvc, engine.Today),
		Jobs:         handlers.NewJobsHandler(jobQueue, jobStore, engine.Today),
	}, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("serve: %w", err)
	}

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (default: ./config.yaml if present)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("API server failed")
	}
}
