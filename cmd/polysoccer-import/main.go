// Command polysoccer-import snapshots the events and price history datasets
// into the SQLite database the viewer can serve from.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/polysoccer/internal/config"
	"github.com/rewired-gh/polysoccer/internal/dataset"
	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/storage"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	fromDir    = flag.String("dir", "", "Read events.json and price_history.json from this directory instead of the configured URLs")
	dbPath     = flag.String("db", "", "SQLite database to write; defaults to dataset.db_path")
	history    = flag.Int("history", 5, "Number of recent imports to print")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	var src dataset.Source
	origin := ""
	if *fromDir != "" {
		src = dataset.NewFileSource(*fromDir)
		origin = *fromDir
	} else {
		src = dataset.NewHTTPSource(cfg.Dataset.EventsURL, cfg.Dataset.PriceHistoryURL, cfg.Dataset.Timeout)
		origin = cfg.Dataset.EventsURL
	}
	defer src.Close()

	target := *dbPath
	if target == "" {
		target = cfg.Dataset.DBPath
	}
	store, err := storage.New(target)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, src, store, origin); err != nil {
		logger.Error("Import failed: %v", err)
		store.Close()
		os.Exit(1)
	}

	records, err := store.Imports(ctx, *history)
	if err != nil {
		logger.Warn("Failed to read import log: %v", err)
		return
	}
	for _, r := range records {
		fmt.Printf("%-14s %8s items  %-12s %s\n",
			r.Kind, humanize.Comma(int64(r.Count)), humanize.Time(r.ImportedAt), r.Origin)
	}
}

// run fetches both datasets concurrently and stores them in one transaction.
// Nothing is written unless both fetches and both writes succeed.
func run(ctx context.Context, src dataset.Source, store *storage.Storage, origin string) error {
	var (
		events []models.Event
		lookup models.PriceLookup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = src.LoadEvents(gctx)
		if err != nil {
			return fmt.Errorf("failed to load events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lookup, err = src.LoadPriceHistory(gctx)
		if err != nil {
			return fmt.Errorf("failed to load price history: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := store.ReplaceDataset(ctx, events, lookup, origin); err != nil {
		return err
	}
	logger.Info("Imported %d events and %d price histories into the database", len(events), len(lookup))
	return nil
}
