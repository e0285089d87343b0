// Package pricehistory turns compact price-history records into display rows
// and holds the state of the per-event detail view.
package pricehistory

import (
	"math/big"
	"strconv"

	"github.com/rewired-gh/polysoccer/internal/models"
)

// AbsentMarker is rendered in place of a missing quote. It never equals a
// formatted number, so an absent price cannot be mistaken for 0.000.
const AbsentMarker = "—"

// Fallback labels used when a record carries no names.
const (
	DefaultOutcome1 = "Team 1"
	DefaultDraw     = "Draw"
	DefaultOutcome2 = "Team 2"
)

// Names are the three outcome labels of a record.
type Names struct {
	Outcome1 string
	Draw     string
	Outcome2 string
}

// ResolveNames returns the record's labels, or the fallback triple when the
// record is absent or has no names.
func ResolveNames(record *models.PriceHistory) Names {
	if !record.HasNames() {
		return Names{Outcome1: DefaultOutcome1, Draw: DefaultDraw, Outcome2: DefaultOutcome2}
	}
	return Names{Outcome1: record.Names[0], Draw: record.Names[1], Outcome2: record.Names[2]}
}

// ColumnLabels returns the header of each price column in row order.
func (n Names) ColumnLabels() [models.PriceColumns]string {
	return [models.PriceColumns]string{
		n.Outcome1 + " Yes", n.Outcome1 + " No",
		n.Draw + " Yes", n.Draw + " No",
		n.Outcome2 + " Yes", n.Outcome2 + " No",
	}
}

// DisplayRow is one formatted quote row.
type DisplayRow struct {
	Time     string `json:"time"`
	Team1Yes string `json:"team1_yes"`
	Team1No  string `json:"team1_no"`
	DrawYes  string `json:"draw_yes"`
	DrawNo   string `json:"draw_no"`
	Team2Yes string `json:"team2_yes"`
	Team2No  string `json:"team2_no"`
}

// Cells returns the six price cells in column order.
func (r DisplayRow) Cells() [models.PriceColumns]string {
	return [models.PriceColumns]string{r.Team1Yes, r.Team1No, r.DrawYes, r.DrawNo, r.Team2Yes, r.Team2No}
}

// FormatPrice renders p with three decimals, or AbsentMarker when p is nil.
// Rounding works on the exact binary value of p and sends exact ties away
// from zero, so 0.0625 renders as 0.063.
func FormatPrice(p *float64) string {
	if p == nil {
		return AbsentMarker
	}
	if exact := new(big.Rat).SetFloat64(*p); exact != nil {
		return exact.FloatString(3)
	}
	// NaN and infinities
	return strconv.FormatFloat(*p, 'f', 3, 64)
}

// FormatRows maps every raw row to a DisplayRow in input order. A nil record
// yields an empty, non-nil slice.
func FormatRows(record *models.PriceHistory) []DisplayRow {
	if record == nil {
		return []DisplayRow{}
	}
	rows := make([]DisplayRow, len(record.Rows))
	for i, raw := range record.Rows {
		rows[i] = DisplayRow{
			Time:     raw.Time.String(),
			Team1Yes: FormatPrice(raw.Prices[0]),
			Team1No:  FormatPrice(raw.Prices[1]),
			DrawYes:  FormatPrice(raw.Prices[2]),
			DrawNo:   FormatPrice(raw.Prices[3]),
			Team2Yes: FormatPrice(raw.Prices[4]),
			Team2No:  FormatPrice(raw.Prices[5]),
		}
	}
	return rows
}
