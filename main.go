package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"immo-scouter/config"
	"immo-scouter/crawler"
	"immo-scouter/dispatch"
	"immo-scouter/images"
	"immo-scouter/models"
	"immo-scouter/sheets"
	"immo-scouter/store"
)

func main() {
	mode := flag.String("mode", "crawl", "Run mode: crawl (scrape and score listings) or top5 (dispatch best matches)")
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	profileName := flag.String("profile", "default", "Buyer profile used for scoring and dispatch")
	override := flag.Bool("override", false, "Ignore the cooldown window and allow re-sending recent matches")
	dryRun := flag.Bool("dry-run", false, "Select matches without sending or marking them as sent")
	sheetURL := flag.String("sheet", "", "Google Sheets URL for the run report (overrides config)")
	sheetMode := flag.String("sheet-mode", "run", "Sheets export mode: run (new sheet per run), replace (rewrite Sheet1), append (add below Sheet1)")
	imageDir := flag.String("images", "", "Directory for archived listing photos (empty disables archiving)")
	refresh := flag.Bool("refresh", false, "Re-fetch listings that are already stored")
	interval := flag.Duration("interval", 0, "Repeat the run at this interval (0 runs once)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	// .env is optional, real deployments use environment variables.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", *configPath)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	profile, err := cfg.Profile(*profileName)
	if err != nil {
		slog.Error("unknown profile", "profile", *profileName, "error", err)
		os.Exit(1)
	}
	if *sheetURL != "" {
		cfg.SpreadsheetURL = *sheetURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(*dryRun)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	run := func() error {
		switch *mode {
		case "crawl":
			return runCrawl(ctx, s, cfg, profile, *imageDir, *refresh, *sheetMode)
		case "top5":
			return runTop5(ctx, s, cfg, *profileName, dispatch.Options{
				Override: *override,
				DryRun:   *dryRun,
			})
		default:
			return fmt.Errorf("unknown mode %q (expected crawl or top5)", *mode)
		}
	}

	if err := run(); err != nil {
		slog.Error("run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}

	if *interval <= 0 {
		return
	}
	slog.Info("monitoring", "mode", *mode, "interval", *interval)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return
		case <-ticker.C:
			if err := run(); err != nil {
				slog.Error("run failed", "mode", *mode, "error", err)
			}
		}
	}
}

// openStore connects to Postgres, or falls back to the in-memory store
// for dry runs so nothing touches the database.
func openStore(dryRun bool) (store.Store, error) {
	if dryRun {
		slog.Info("dry run, using in-memory store")
		return store.NewMemory(), nil
	}
	return store.NewPostgres()
}

func runCrawl(ctx context.Context, s store.Store, cfg *config.Config, profile config.Profile, imageDir string, refresh bool, sheetMode string) error {
	c := crawler.New(s, cfg, profile).WithRefresh(refresh)
	if imageDir != "" {
		disk, err := images.NewDisk(imageDir)
		if err != nil {
			return err
		}
		c = c.WithImageStorage(disk)
	}

	stats, err := c.Run(ctx)
	if err != nil {
		return err
	}

	exportReport(ctx, s, cfg, stats.RunID, sheetMode)
	return nil
}

func runTop5(ctx context.Context, s store.Store, cfg *config.Config, profileName string, opts dispatch.Options) error {
	var notifier dispatch.Notifier
	if !opts.DryRun {
		tg, err := dispatch.NewTelegram()
		if err != nil {
			return fmt.Errorf("telegram notifier: %w", err)
		}
		notifier = tg
	}

	d := dispatch.New(s, notifier, cfg)
	res, err := d.Run(ctx, opts)
	if err != nil {
		return err
	}
	slog.Info("dispatch finished",
		"profile", profileName,
		"candidates", res.Candidates,
		"suppressed", res.Suppressed,
		"dispatched", res.Dispatched,
		"failed", res.Failed)
	return nil
}

// exportReport writes the current candidate pool to Google Sheets when a
// spreadsheet is configured. Failures only log, the crawl itself already
// succeeded.
func exportReport(ctx context.Context, s store.Store, cfg *config.Config, runID, mode string) {
	if cfg.SpreadsheetURL == "" {
		return
	}
	spreadsheetID := sheets.ExtractSpreadsheetID(cfg.SpreadsheetURL)
	if spreadsheetID == "" {
		slog.Warn("could not extract spreadsheet ID", "url", cfg.SpreadsheetURL)
		return
	}
	writer, err := sheets.NewWriter(spreadsheetID, os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE"))
	if err != nil {
		slog.Warn("failed to initialize sheets writer", "error", err)
		return
	}

	candidates, err := s.FindCandidates(ctx, store.CandidateQuery{
		MinScore: cfg.Dispatch.MinScore,
		Limit:    200,
	})
	if err != nil {
		slog.Warn("failed to load candidates for report", "error", err)
		return
	}
	listings := make([]models.Listing, 0, len(candidates))
	for _, l := range candidates {
		listings = append(listings, *l)
	}

	switch mode {
	case "replace":
		err = writer.WriteListings(listings, true)
	case "append":
		err = writer.AppendListings(listings)
	default:
		_, _, err = writer.WriteRunReport(runID, listings)
	}
	if err != nil {
		slog.Warn("failed to export report", "mode", mode, "error", err)
	}
}
