package pricehistory

import (
	"github.com/rewired-gh/polysoccer/internal/models"
)

// Detail is the display-ready price history of one event.
type Detail struct {
	EventID   models.EventID
	Names     Names
	Rows      []DisplayRow
	Available bool
	Stats     Stats
}

// Formatter caches the last Detail it produced. It recomputes only when the
// event id or the record it resolves to changes; a reloaded lookup decodes
// fresh records, so a reload always invalidates the cache.
// A Formatter is not safe for concurrent use.
type Formatter struct {
	valid      bool
	id         models.EventID
	record     *models.PriceHistory
	detail     Detail
	recomputes int
}

// Format returns the Detail for id in lookup.
func (f *Formatter) Format(id models.EventID, lookup models.PriceLookup) Detail {
	record := lookup.Get(id)
	if f.valid && f.id == id && f.record == record {
		return f.detail
	}
	f.detail = Detail{
		EventID:   id,
		Names:     ResolveNames(record),
		Rows:      FormatRows(record),
		Available: record != nil,
		Stats:     ComputeStats(record),
	}
	f.valid = true
	f.id = id
	f.record = record
	f.recomputes++
	return f.detail
}

// Reset drops the cached Detail.
func (f *Formatter) Reset() {
	*f = Formatter{}
}
