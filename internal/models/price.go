package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Column layout of a compact price row: [time, out1Yes, out1No, drawYes, drawNo, out2Yes, out2No].
const (
	PriceRowWidth = 7
	PriceColumns  = PriceRowWidth - 1
	NameCount     = 3
)

// PriceRow is one quote row. A nil price means no quote at this timestamp for
// that side, which is distinct from a zero price.
type PriceRow struct {
	Time   json.Number
	Prices [PriceColumns]*float64
}

// UnmarshalJSON decodes the fixed-width array form and rejects any other arity.
func (r *PriceRow) UnmarshalJSON(data []byte) error {
	var cells []json.RawMessage
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("price row must be an array: %w", err)
	}
	if len(cells) != PriceRowWidth {
		return fmt.Errorf("price row has %d fields, want %d", len(cells), PriceRowWidth)
	}

	dec := json.NewDecoder(bytes.NewReader(cells[0]))
	dec.UseNumber()
	var ts any
	if err := dec.Decode(&ts); err != nil {
		return fmt.Errorf("invalid price row timestamp: %w", err)
	}
	num, ok := ts.(json.Number)
	if !ok {
		return fmt.Errorf("price row timestamp must be numeric, got %s", cells[0])
	}
	r.Time = num

	for i := 0; i < PriceColumns; i++ {
		cell := bytes.TrimSpace(cells[i+1])
		if bytes.Equal(cell, []byte("null")) {
			r.Prices[i] = nil
			continue
		}
		var v float64
		if err := json.Unmarshal(cell, &v); err != nil {
			return fmt.Errorf("price row field %d: %w", i+1, err)
		}
		r.Prices[i] = &v
	}
	return nil
}

// MarshalJSON encodes the row back into its compact array form.
func (r PriceRow) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	if r.Time == "" {
		b.WriteString("0")
	} else {
		b.WriteString(r.Time.String())
	}
	for _, p := range r.Prices {
		b.WriteByte(',')
		if p == nil {
			b.WriteString("null")
			continue
		}
		b.WriteString(strconv.FormatFloat(*p, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// PriceHistory is the per-event bundle of outcome labels and quote rows.
type PriceHistory struct {
	Names []string   `json:"n"` // [outcome1, draw, outcome2]; may be absent
	Rows  []PriceRow `json:"p"`
}

// UnmarshalJSON decodes a record and checks the names triple.
func (h *PriceHistory) UnmarshalJSON(data []byte) error {
	type raw PriceHistory
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Names != nil && len(r.Names) != NameCount {
		return fmt.Errorf("price history names has %d entries, want %d", len(r.Names), NameCount)
	}
	*h = PriceHistory(r)
	return nil
}

// HasNames reports whether the record carries its own outcome labels.
func (h *PriceHistory) HasNames() bool {
	return h != nil && len(h.Names) == NameCount
}

// PriceLookup maps an event id (string form) to its price history.
type PriceLookup map[string]*PriceHistory

// Get returns the record for id, or nil when absent.
func (l PriceLookup) Get(id EventID) *PriceHistory {
	if l == nil {
		return nil
	}
	return l[string(id)]
}

// DecodePriceLookup decodes the bulk price-history resource.
func DecodePriceLookup(data []byte) (PriceLookup, error) {
	var lookup PriceLookup
	if err := json.Unmarshal(data, &lookup); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}
	if lookup == nil {
		return nil, errors.New("price history must be a JSON object")
	}
	return lookup, nil
}
