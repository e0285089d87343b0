// Package models defines the domain entities: catalog events and their price histories.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// OtherSeries is the display label for events without a tournament.
const OtherSeries = "Other"

// EventID identifies an event. The dataset emits it either as a JSON string or
// as a JSON integer; both decode to the same string form, which is also the key
// of the price-history lookup.
type EventID string

// UnmarshalJSON accepts a JSON string or number.
func (id *EventID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return errors.New("event id must not be null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid event id: %w", err)
		}
		*id = EventID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid event id %s: %w", data, err)
	}
	*id = EventID(n.String())
	return nil
}

func (id EventID) String() string {
	return string(id)
}

// Event is a single resolved prediction-market event in the catalog.
type Event struct {
	ID            EventID `json:"id"`
	Title         string  `json:"title"`
	Outcome       string  `json:"outcome"`
	Series        string  `json:"series,omitempty"` // tournament; empty when absent
	Volume        float64 `json:"volume"`
	PolymarketURL string  `json:"polymarket_url,omitempty"`
}

// DisplaySeries returns the tournament label shown to the user.
func (e *Event) DisplaySeries() string {
	if e.Series == "" {
		return OtherSeries
	}
	return e.Series
}

// Validate checks event field constraints.
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event ID must not be empty")
	}
	if e.Title == "" {
		return errors.New("event title must not be empty")
	}
	if math.IsNaN(e.Volume) || math.IsInf(e.Volume, 0) {
		return errors.New("volume must be finite")
	}
	if e.Volume < 0 {
		return errors.New("volume must not be negative")
	}
	return nil
}

// ValidateCatalog validates every event and rejects duplicate ids.
func ValidateCatalog(events []Event) error {
	seen := make(map[EventID]struct{}, len(events))
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return fmt.Errorf("event %d (%q): %w", i, events[i].ID, err)
		}
		if _, dup := seen[events[i].ID]; dup {
			return fmt.Errorf("duplicate event id: %s", events[i].ID)
		}
		seen[events[i].ID] = struct{}{}
	}
	return nil
}
