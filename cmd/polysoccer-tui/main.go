package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/config"
	"github.com/rewired-gh/polysoccer/internal/dataset"
	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
	"github.com/rewired-gh/polysoccer/internal/tui"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	logPath    = flag.String("log", "polysoccer-tui.log", "Log file; empty discards logs")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; logs go to a file.
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger.InitWithWriter(logOut, cfg.Logging.Level, cfg.Logging.Format)

	src, err := dataset.New(cfg.Dataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dataset source: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := catalog.NewStore()
	defer store.Close()

	model := tui.NewModel(ctx, store, src, pricehistory.NewLookup(src), cfg.Viewer.PageSize)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
