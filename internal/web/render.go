package web

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
)

//go:embed templates/*.html
var templatesFS embed.FS

// FormatVolume renders a dollar volume with thousands separators and at most
// three fraction digits.
func FormatVolume(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 3)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"volume": FormatVolume,
		"count":  FormatCount,
		"series": func(e models.Event) string { return e.DisplaySeries() },
		"pathescape": func(id models.EventID) string {
			return url.PathEscape(string(id))
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
}

// pageData is the model of the index page.
type pageData struct {
	View    catalog.PageView
	Loading bool
	Detail  *detailData
}

// detailData is the open detail dialog.
type detailData struct {
	Event   models.Event
	Detail  pricehistory.Detail
	LoadErr string
}

// statsEntry is one price column summary in API responses.
type statsEntry struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func statsEntries(d pricehistory.Detail) []statsEntry {
	labels := d.Names.ColumnLabels()
	out := make([]statsEntry, 0, len(d.Stats))
	for i := range d.Stats {
		st := d.Stats[i]
		out = append(out, statsEntry{
			Label:  labels[i],
			Count:  st.Count,
			Mean:   st.Mean,
			StdDev: st.StdDev(),
			Min:    st.Min,
			Max:    st.Max,
		})
	}
	return out
}

func parsePage(s string) (int, bool) {
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
