package models

import (
	"encoding/json"
	"math"
	"testing"
)

func TestEventIDUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    EventID
		wantErr bool
	}{
		{`"abc-1"`, "abc-1", false},
		{`12345`, "12345", false},
		{` 42 `, "42", false},
		{`null`, "", true},
		{`true`, "", true},
		{`{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id EventID
			err := json.Unmarshal([]byte(tt.input), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && id != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, id, tt.want)
			}
		})
	}
}

func TestEventDecode_NullSeries(t *testing.T) {
	data := `[
		{"id": 1, "title": "A vs B", "outcome": "A wins", "series": "Cup", "volume": 100},
		{"id": "2", "title": "C vs D", "outcome": "Draw", "series": null, "volume": 50.5, "polymarket_url": "https://polymarket.com/event/c-d"}
	]`
	var events []Event
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "1" || events[1].ID != "2" {
		t.Errorf("ids = %q, %q", events[0].ID, events[1].ID)
	}
	if events[1].Series != "" {
		t.Errorf("null series decoded as %q", events[1].Series)
	}
	if got := events[1].DisplaySeries(); got != OtherSeries {
		t.Errorf("DisplaySeries() = %q, want %q", got, OtherSeries)
	}
	if got := events[0].DisplaySeries(); got != "Cup" {
		t.Errorf("DisplaySeries() = %q, want Cup", got)
	}
	if events[1].PolymarketURL == "" {
		t.Error("polymarket_url not decoded")
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name:    "valid event",
			event:   Event{ID: "1", Title: "A vs B", Outcome: "A wins", Volume: 100},
			wantErr: false,
		},
		{
			name:    "empty ID",
			event:   Event{Title: "A vs B"},
			wantErr: true,
		},
		{
			name:    "empty title",
			event:   Event{ID: "1"},
			wantErr: true,
		},
		{
			name:    "negative volume",
			event:   Event{ID: "1", Title: "A vs B", Volume: -1},
			wantErr: true,
		},
		{
			name:    "infinite volume",
			event:   Event{ID: "1", Title: "A vs B", Volume: math.Inf(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Event.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCatalog_Duplicate(t *testing.T) {
	events := []Event{
		{ID: "1", Title: "A"},
		{ID: "2", Title: "B"},
		{ID: "1", Title: "C"},
	}
	if err := ValidateCatalog(events); err == nil {
		t.Error("expected duplicate id error")
	}
	if err := ValidateCatalog(events[:2]); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPriceLookupDecode(t *testing.T) {
	data := `{
		"1": {"n": ["X", "Draw", "Y"], "p": [[1000, 0.5, 0.5, null, null, 0.1, 0.9], [1060, 0, 1, 0.25, 0.75, null, 0.95]]},
		"2": {"p": []}
	}`
	lookup, err := DecodePriceLookup([]byte(data))
	if err != nil {
		t.Fatalf("DecodePriceLookup: %v", err)
	}

	rec := lookup.Get("1")
	if rec == nil {
		t.Fatal("record 1 missing")
	}
	if !rec.HasNames() || rec.Names[0] != "X" || rec.Names[2] != "Y" {
		t.Errorf("names = %v", rec.Names)
	}
	if len(rec.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rec.Rows))
	}
	first := rec.Rows[0]
	if first.Time.String() != "1000" {
		t.Errorf("time = %s, want 1000", first.Time)
	}
	if first.Prices[2] != nil || first.Prices[3] != nil {
		t.Error("null prices must decode as nil")
	}
	if first.Prices[4] == nil || *first.Prices[4] != 0.1 {
		t.Errorf("out2Yes = %v", first.Prices[4])
	}
	second := rec.Rows[1]
	if second.Prices[0] == nil || *second.Prices[0] != 0 {
		t.Error("zero price must decode as a present zero")
	}

	if lookup.Get("2").HasNames() {
		t.Error("record without n must not report names")
	}
	if lookup.Get("missing") != nil {
		t.Error("missing id must return nil")
	}
	var nilLookup PriceLookup
	if nilLookup.Get("1") != nil {
		t.Error("nil lookup must return nil")
	}
}

func TestPriceLookupDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short row", `{"1": {"n": ["X","Draw","Y"], "p": [[1000, 0.5, 0.5]]}}`},
		{"long row", `{"1": {"p": [[1000, 1, 2, 3, 4, 5, 6, 7]]}}`},
		{"string timestamp", `{"1": {"p": [["t", 1, 2, 3, 4, 5, 6]]}}`},
		{"null timestamp", `{"1": {"p": [[null, 1, 2, 3, 4, 5, 6]]}}`},
		{"string price", `{"1": {"p": [[1, "x", 2, 3, 4, 5, 6]]}}`},
		{"two names", `{"1": {"n": ["X","Y"], "p": []}}`},
		{"not an object", `[1, 2]`},
		{"null document", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePriceLookup([]byte(tt.data)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestPriceRowMarshal(t *testing.T) {
	half := 0.5
	row := PriceRow{Time: "1000", Prices: [PriceColumns]*float64{&half, nil, nil, nil, nil, &half}}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[1000,0.5,null,null,null,null,0.5]`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back PriceRow
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Time != row.Time || back.Prices[1] != nil || *back.Prices[5] != 0.5 {
		t.Errorf("decoded row mismatch: %+v", back)
	}
}
