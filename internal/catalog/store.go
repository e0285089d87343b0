package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/models"
)

var (
	// ErrNotLoaded is returned when the catalog is requested before a successful load.
	ErrNotLoaded = errors.New("catalog not loaded")
	// ErrStaleLoad is returned by Load when its result was superseded by a newer
	// load or arrived after the store was closed. The result is discarded.
	ErrStaleLoad = errors.New("catalog load superseded")
)

// State is the load lifecycle of a Store.
type State int

const (
	Uninitialized State = iota
	Loading
	Loaded
	LoadFailed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventSource fetches the full event collection.
type EventSource interface {
	LoadEvents(ctx context.Context) ([]models.Event, error)
}

// Catalog is an immutable, fully loaded event collection.
type Catalog struct {
	events      []models.Event
	tournaments []string
	loadedAt    time.Time
}

// NewCatalog wraps events and precomputes the tournament facets.
// The catalog takes ownership of events; callers must not modify them afterwards.
func NewCatalog(events []models.Event) *Catalog {
	if events == nil {
		events = []models.Event{}
	}
	return &Catalog{
		events:      events,
		tournaments: Tournaments(events),
		loadedAt:    time.Now(),
	}
}

// Events returns the catalog entries. The slice is shared and must be treated as read-only.
func (c *Catalog) Events() []models.Event { return c.events }

// Tournaments returns the memoized facet list. Read-only.
func (c *Catalog) Tournaments() []string { return c.tournaments }

// Len returns the number of events.
func (c *Catalog) Len() int { return len(c.events) }

// LoadedAt returns when the catalog was built.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// Event returns the event with the given id.
func (c *Catalog) Event(id models.EventID) (models.Event, bool) {
	for i := range c.events {
		if c.events[i].ID == id {
			return c.events[i], true
		}
	}
	return models.Event{}, false
}

// LoadHook observes completed loads. err is nil on success.
type LoadHook func(c *Catalog, err error)

// Store owns the catalog and its load lifecycle.
type Store struct {
	mu      sync.RWMutex
	state   State
	catalog *Catalog
	err     error
	gen     uint64
	closed  bool
	hooks   []LoadHook
}

// NewStore returns an Uninitialized store.
func NewStore() *Store {
	return &Store{}
}

// OnLoad registers a hook called after every load that was not discarded.
func (s *Store) OnLoad(h LoadHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Load fetches the catalog from src and replaces the current one atomically.
// It may be called again after LoadFailed to retry. A load whose result arrives
// after a newer Load started, or after Close, is discarded with ErrStaleLoad.
func (s *Store) Load(ctx context.Context, src EventSource) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStaleLoad
	}
	s.gen++
	gen := s.gen
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	start := time.Now()
	events, err := src.LoadEvents(ctx)
	if err == nil {
		if verr := models.ValidateCatalog(events); verr != nil {
			err = fmt.Errorf("invalid catalog: %w", verr)
		}
	}

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		logger.Debug("Discarding superseded catalog load (generation %d)", gen)
		return ErrStaleLoad
	}
	var loaded *Catalog
	if err != nil {
		s.state = LoadFailed
		s.err = err
		s.catalog = nil
	} else {
		loaded = NewCatalog(events)
		s.state = Loaded
		s.catalog = loaded
	}
	hooks := append([]LoadHook(nil), s.hooks...)
	s.mu.Unlock()

	if err != nil {
		logger.Error("Failed to load catalog: %v", err)
	} else {
		logger.Info("Loaded catalog: %d events, %d tournaments in %v",
			loaded.Len(), len(loaded.Tournaments()), time.Since(start))
	}
	for _, h := range hooks {
		h(loaded, err)
	}
	return err
}

// Close marks the store as torn down; in-flight loads are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the error of the last failed load, if the store is in LoadFailed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Snapshot returns the loaded catalog or nil.
func (s *Store) Snapshot() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Require returns the loaded catalog or ErrNotLoaded.
func (s *Store) Require() (*Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		if s.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotLoaded, s.err)
		}
		return nil, ErrNotLoaded
	}
	return s.catalog, nil
}

// Status returns state, catalog and last error under a single lock.
func (s *Store) Status() (State, *Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.catalog, s.err
}
