// Package catalog holds the in-memory event catalog and derives the visible
// page of results from filter and pagination state.
package catalog

import (
	"sort"
	"strings"

	"github.com/rewired-gh/polysoccer/internal/models"
)

// AllTournaments is the tournament selection that disables the tournament filter.
const AllTournaments = "all"

// DefaultPageSize is the number of events shown per page.
const DefaultPageSize = 500

// Tournaments returns the distinct non-empty series values, sorted ascending.
// Events without a series are displayed as "Other" but never listed here.
func Tournaments(events []models.Event) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := range events {
		s := events[i].Series
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ApplyFilters returns the events matching both the tournament and the query.
// The tournament must equal the event's series unless it is AllTournaments or
// empty. The query is a case-insensitive substring match against title or
// outcome; an empty query matches everything. Input order is preserved.
func ApplyFilters(events []models.Event, query, tournament string) []models.Event {
	q := strings.ToLower(query)
	filterTournament := tournament != "" && tournament != AllTournaments

	out := make([]models.Event, 0, len(events))
	for i := range events {
		e := &events[i]
		if filterTournament && e.Series != tournament {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(e.Outcome), q) {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// TotalPages returns the page count for count items, never less than 1 so an
// empty result reads "page 1 of 1".
func TotalPages(count, pageSize int) int {
	if pageSize < 1 || count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// Paginate returns the 1-indexed page of filtered. Pages outside the available
// range, and non-positive page sizes, yield an empty slice.
func Paginate(filtered []models.Event, page, pageSize int) []models.Event {
	if page < 1 || pageSize < 1 {
		return []models.Event{}
	}
	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []models.Event{}
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// PageRange returns the 1-indexed bounds of page for a "showing from-to of N"
// summary, or (0, 0) when the page is empty.
func PageRange(page, pageSize, count int) (from, to int) {
	if page < 1 || pageSize < 1 || count <= 0 {
		return 0, 0
	}
	start := (page - 1) * pageSize
	if start >= count {
		return 0, 0
	}
	to = start + pageSize
	if to > count {
		to = count
	}
	return start + 1, to
}

// AggregateVolume sums volume over filtered. Callers pass the same filtered set
// the table is paginated from, never the unfiltered catalog.
func AggregateVolume(filtered []models.Event) float64 {
	var total float64
	for i := range filtered {
		total += filtered[i].Volume
	}
	return total
}
