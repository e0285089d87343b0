package pricehistory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/models"
)

// Source fetches the bulk price-history lookup.
type Source interface {
	LoadPriceHistory(ctx context.Context) (models.PriceLookup, error)
}

// Lookup loads the price-history table on first need and keeps it for the
// process lifetime. Concurrent first callers share one load; a failed load is
// retried by the next caller.
type Lookup struct {
	src   Source
	group singleflight.Group

	mu       sync.RWMutex
	lookup   models.PriceLookup
	loadedAt time.Time
}

// NewLookup returns a Lookup that loads from src.
func NewLookup(src Source) *Lookup {
	return &Lookup{src: src}
}

// Get returns the loaded table, loading it if needed. ctx bounds only this
// caller's wait; the shared load itself is not cancelled by it.
func (l *Lookup) Get(ctx context.Context) (models.PriceLookup, error) {
	if lookup := l.Cached(); lookup != nil {
		return lookup, nil
	}

	ch := l.group.DoChan("lookup", func() (any, error) {
		if lookup := l.Cached(); lookup != nil {
			return lookup, nil
		}
		start := time.Now()
		lookup, err := l.src.LoadPriceHistory(context.WithoutCancel(ctx))
		if err != nil {
			logger.Error("Failed to load price history: %v", err)
			return nil, err
		}
		if lookup == nil {
			lookup = models.PriceLookup{}
		}
		l.mu.Lock()
		l.lookup = lookup
		l.loadedAt = time.Now()
		l.mu.Unlock()
		logger.Info("Loaded price history for %d events in %v", len(lookup), time.Since(start))
		return lookup, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(models.PriceLookup), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cached returns the table if it has been loaded, without triggering a load.
func (l *Lookup) Cached() models.PriceLookup {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lookup
}

// LoadedAt returns when the table was loaded, zero if it has not been.
func (l *Lookup) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}
