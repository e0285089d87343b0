// Package dataset reads the event catalog and the price-history lookup from
// their static resources.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rewired-gh/polysoccer/internal/config"
	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/storage"
)

// ErrUnknownSource is returned by New for an unsupported dataset.source.
var ErrUnknownSource = errors.New("unknown dataset source")

// Source provides both resources of the dataset.
type Source interface {
	LoadEvents(ctx context.Context) ([]models.Event, error)
	LoadPriceHistory(ctx context.Context) (models.PriceLookup, error)
	Close() error
}

// New builds the source selected by cfg.Source.
func New(cfg config.DatasetConfig) (Source, error) {
	switch cfg.Source {
	case config.SourceHTTP:
		return NewHTTPSource(cfg.EventsURL, cfg.PriceHistoryURL, cfg.Timeout), nil
	case config.SourceFile:
		return NewFileSource(cfg.Dir), nil
	case config.SourceSQLite:
		s, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
}

// DecodeEvents decodes the catalog resource, a JSON array of events.
func DecodeEvents(r io.Reader) ([]models.Event, error) {
	var events []models.Event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	if events == nil {
		return nil, errors.New("events resource must be a JSON array")
	}
	return events, nil
}

// DecodePriceHistory decodes the price-history resource.
func DecodePriceHistory(r io.Reader) (models.PriceLookup, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read price history: %w", err)
	}
	return models.DecodePriceLookup(data)
}
