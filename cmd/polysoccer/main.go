package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/config"
	"github.com/rewired-gh/polysoccer/internal/dataset"
	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
	"github.com/rewired-gh/polysoccer/internal/session"
	"github.com/rewired-gh/polysoccer/internal/telegram"
	"github.com/rewired-gh/polysoccer/internal/web"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// os.Exit skips deferred calls, so it runs last.
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	src, err := dataset.New(cfg.Dataset)
	if err != nil {
		logger.Fatal("Failed to initialize dataset source: %v", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Error("Failed to close dataset source: %v", err)
		}
	}()
	logger.Info("Dataset source: %s", cfg.Dataset.Source)

	store := catalog.NewStore()
	defer store.Close()

	prices := pricehistory.NewLookup(src)
	sessions := session.NewManager(store, cfg.Viewer.PageSize, cfg.Viewer.SessionTTL, cfg.Viewer.MaxSessions)

	var telegramClient *telegram.Client
	var notifier *telegram.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		telegramClient.SetStatusFunc(func() telegram.Status {
			state, cat, loadErr := store.Status()
			st := telegram.Status{State: state.String(), Sessions: sessions.Len()}
			if loadErr != nil {
				st.Err = loadErr.Error()
			}
			if cat != nil {
				st.Events = cat.Len()
				st.Tournaments = len(cat.Tournaments())
				st.TotalVolume = catalog.AggregateVolume(cat.Events())
				st.LoadedAt = cat.LoadedAt()
			}
			return st
		})
		notifier = telegram.NewNotifier(telegramClient)
		store.OnLoad(notifier.OnLoad)
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	server := web.NewServer(cfg.Server, web.Deps{
		Store:        store,
		Source:       src,
		Prices:       prices,
		Sessions:     sessions,
		PageSize:     cfg.Viewer.PageSize,
		SessionTTL:   cfg.Viewer.SessionTTL,
		PriceTimeout: cfg.Dataset.Timeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx)
	})

	// A failed initial load is not fatal: the viewer shows the failure and
	// offers a retry.
	g.Go(func() error {
		logger.Debug("Running initial catalog load")
		if err := store.Load(ctx, src); err != nil && !errors.Is(err, catalog.ErrStaleLoad) {
			logger.Warn("Initial catalog load failed: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(ctx, sweepInterval(cfg.Viewer.SessionTTL))
	})

	if notifier != nil {
		g.Go(func() error {
			return notifier.Run(ctx)
		})
		g.Go(func() error {
			return telegramClient.ListenForCommands(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Service stopped with error: %v", err)
		exitCode = 1
		return
	}
	logger.Info("Service stopped")
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	return min(ttl/2, 5*time.Minute)
}
