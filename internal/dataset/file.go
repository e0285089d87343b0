package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rewired-gh/polysoccer/internal/models"
)

// File names inside a dataset directory.
const (
	EventsFile       = "events.json"
	PriceHistoryFile = "price_history.json"
)

// FileSource reads the dataset from a local directory.
type FileSource struct {
	dir string
}

// NewFileSource creates a source reading dir/events.json and dir/price_history.json.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// LoadEvents reads the catalog file.
func (s *FileSource) LoadEvents(ctx context.Context) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, EventsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open events: %w", err)
	}
	defer f.Close()
	return DecodeEvents(f)
}

// LoadPriceHistory reads the price-history file.
func (s *FileSource) LoadPriceHistory(ctx context.Context) (models.PriceLookup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, PriceHistoryFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open price history: %w", err)
	}
	defer f.Close()
	return DecodePriceHistory(f)
}

// Close is a no-op.
func (s *FileSource) Close() error { return nil }
