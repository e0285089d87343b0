package pricehistory

import (
	"math"

	"github.com/rewired-gh/polysoccer/internal/models"
)

// ColumnStats accumulates a running summary of one price column using
// Welford's online algorithm. Absent quotes are skipped.
type ColumnStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	m2    float64
}

// Update folds one observed price into the summary.
func (s *ColumnStats) Update(price float64) {
	if s.Count == 0 {
		s.Min, s.Max = price, price
	} else {
		s.Min = math.Min(s.Min, price)
		s.Max = math.Max(s.Max, price)
	}
	s.Count++
	delta := price - s.Mean
	s.Mean += delta / float64(s.Count)
	delta2 := price - s.Mean
	s.m2 += delta * delta2
}

// StdDev returns the sample standard deviation, 0 with fewer than two samples.
func (s *ColumnStats) StdDev() float64 {
	if s.Count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.Count-1))
}

// Stats holds one summary per price column.
type Stats [models.PriceColumns]ColumnStats

// ComputeStats summarizes every column of record. A nil record gives zero stats.
func ComputeStats(record *models.PriceHistory) Stats {
	var st Stats
	if record == nil {
		return st
	}
	for _, row := range record.Rows {
		for i, p := range row.Prices {
			if p == nil {
				continue
			}
			st[i].Update(*p)
		}
	}
	return st
}
