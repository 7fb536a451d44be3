package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/config"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/extraction"
	"github.com/dvloznov/dompet/internal/gemini"
	infraBQ "github.com/dvloznov/dompet/internal/infra/bigquery"
	"github.com/dvloznov/dompet/internal/logger"
	"github.com/dvloznov/dompet/internal/receipts"
	"github.com/dvloznov/dompet/internal/reconcile"
	"github.com/dvloznov/dompet/internal/scan"
	"github.com/dvloznov/dompet/internal/store/inmemory"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		runScan(log)
	case "rescan":
		runRescan(log)
	case "normalize":
		runNormalize()
	case "categories":
		runCategories(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Dompet CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  scan        Scan a local receipt photo into a transaction draft")
	fmt.Println("  rescan      Re-run extraction on an archived receipt in GCS")
	fmt.Println("  normalize   Normalize a raw amount string")
	fmt.Println("  categories  Show the categories offered to a user")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// env is what the scanning commands share.
type env struct {
	cfg     *config.Config
	log     zerolog.Logger
	cache   *categories.Cache
	service *scan.Service
	close   func()
}

func setup(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.Configure(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		catStore categories.Store
		recorder scan.Recorder
	)
	if cfg.BigQuery.Enabled() {
		client, err := infraBQ.NewClient(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { client.Close() })
		catStore = infraBQ.NewCategoryRepository(client)
		recorder = infraBQ.NewModelOutputRepository(client)
	} else {
		mem := inmemory.NewStore()
		catStore, recorder = mem, mem
	}

	genaiClient, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		closeAll()
		return nil, err
	}
	loc, err := cfg.Scan.Location()
	if err != nil {
		closeAll()
		return nil, err
	}

	cache := categories.NewCache(catStore)
	extractor := extraction.NewGeminiExtractor(genaiClient.Models,
		extraction.WithModel(cfg.Gemini.Model),
		extraction.WithTimeout(cfg.Gemini.Timeout),
		extraction.WithLocation(loc),
	)
	engine := reconcile.NewEngine(
		reconcile.WithLocation(loc),
		reconcile.WithPlaceholder(cfg.Scan.DescriptionPlaceholder),
	)

	return &env{
		cfg:     cfg,
		log:     log,
		cache:   cache,
		service: scan.NewService(extractor, cache, engine, scan.WithRecorder(recorder)),
		close:   closeAll,
	}, nil
}

// runSession scans photoDataURI; Ctrl-C dismisses the session instead of killing the process.
func runSession(ctx context.Context, e *env, sess *scan.Session, req scan.Request) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		if _, ok := <-sigs; ok {
			e.log.Warn().Msg("Interrupted - dismissing scan")
			sess.Dismiss()
		}
	}()

	draft, err := sess.Run(ctx, req)
	printOutcome(scan.OutcomeOf(draft, err))
	if err != nil {
		os.Exit(1)
	}
}

func printOutcome(out scan.Outcome) {
	if out.Status == scan.StatusAbandoned {
		fmt.Println("Scan dismissed.")
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func parseType(s string) domain.TransactionType {
	if s == "" {
		return ""
	}
	return domain.TransactionType(strings.ToLower(s))
}

func runScan(log zerolog.Logger) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	filePath := fs.String("file", "", "Path to a receipt photo (jpg, png, webp, heic)")
	userID := fs.String("user", "cli", "User whose categories are used")
	expected := fs.String("type", "", "Expected transaction type: expense or income (default: accept either)")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	e, err := setup(ctx, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	defer e.close()
	ctx = logger.WithContext(ctx, e.log)

	f, err := os.Open(*filePath)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to open photo")
	}
	// The session owns the file from here on.
	sess := e.service.NewSession(func() { f.Close() })

	data, err := io.ReadAll(f)
	if err != nil {
		sess.Dismiss()
		e.log.Fatal().Err(err).Msg("Failed to read photo")
	}
	img := extraction.Image{MIMEType: receipts.MIMETypeFromName(*filePath), Data: data}

	e.log.Info().Str("file", *filePath).Str("user_id", *userID).Msg("Scanning receipt")
	runSession(ctx, e, sess, scan.Request{
		UserID:       *userID,
		PhotoDataURI: img.DataURI(),
		ExpectedType: parseType(*expected),
	})
}

func runRescan(log zerolog.Logger) {
	fs := flag.NewFlagSet("rescan", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	gcsURI := fs.String("gcs-uri", "", "GCS URI of an archived receipt photo")
	userID := fs.String("user", "cli", "User whose categories are used")
	expected := fs.String("type", "", "Expected transaction type: expense or income")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}
	bucket, _, err := receipts.ParseGCSURI(*gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --gcs-uri")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	e, err := setup(ctx, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	defer e.close()
	ctx = logger.WithContext(ctx, e.log)

	archive, err := receipts.NewArchive(ctx, bucket)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer archive.Close()

	img, err := archive.Fetch(ctx, *gcsURI)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to fetch receipt")
	}

	e.log.Info().Str("gcs_uri", *gcsURI).Msg("Re-scanning receipt")
	runSession(ctx, e, e.service.NewSession(nil), scan.Request{
		UserID:       *userID,
		PhotoDataURI: img.DataURI(),
		ExpectedType: parseType(*expected),
	})
}

func runNormalize() {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	raw := fs.String("raw", "", "Raw amount as printed on a receipt, e.g. \"Rp 45.500\"")
	fs.Parse(os.Args[2:])

	d := amount.Normalize(amount.Text(*raw))
	fmt.Printf("Amount:    %s\n", d.String())
	fmt.Printf("Formatted: %s\n", amount.Format(d))
}

func runCategories(log zerolog.Logger) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	userID := fs.String("user", "cli", "User to show categories for")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	e, err := setup(ctx, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Setup failed")
	}
	defer e.close()
	ctx = logger.WithContext(ctx, e.log)

	reg, err := e.cache.Registry(ctx, *userID)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to load categories")
	}

	for _, t := range []domain.TransactionType{domain.Expense, domain.Income} {
		fmt.Printf("\n=== %s ===\n", strings.ToUpper(string(t)))
		for _, label := range reg.Options(t) {
			fmt.Printf("  %s\n", label)
		}
	}
	fmt.Println()
}
