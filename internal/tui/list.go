package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/tui/styles"
)

const (
	outcomeWidth    = 18
	tournamentWidth = 22
	volumeWidth     = 16
	// lines used by the header, filters, table header, pager and status bar
	chromeLines = 10
)

// FormatVolume renders a dollar amount with thousands separators.
func FormatVolume(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 3)
}

func tournamentLabel(t string) string {
	if t == catalog.AllTournaments || t == "" {
		return "All Tournaments"
	}
	return t
}

func (m *Model) renderCatalog() string {
	v := m.view.View()
	title := styles.TitleStyle.Render("Polymarket Soccer Analytics")

	if v.Failed() {
		msg := styles.ErrorStyle.Render(fmt.Sprintf("Failed to load events: %v\nPress r to retry", v.Err))
		return lipgloss.JoinVertical(lipgloss.Left, title, msg)
	}
	if !v.Available {
		return lipgloss.JoinVertical(lipgloss.Left, title, styles.SubtitleStyle.Render("Loading events..."))
	}

	summary := styles.SubtitleStyle.Render(fmt.Sprintf("%s events • %s total volume",
		humanize.Comma(int64(v.FilteredCount)), FormatVolume(v.TotalVolume)))

	inputStyle := styles.InputStyle
	if m.searching {
		inputStyle = styles.FocusedInputStyle
	}
	filters := lipgloss.JoinHorizontal(lipgloss.Top,
		inputStyle.Render(m.search.View()),
		" ",
		styles.InputStyle.Render("Tournament: "+tournamentLabel(v.Tournament)),
	)

	parts := []string{title, summary, filters, m.renderTable(v)}
	if v.TotalPages > 1 {
		parts = append(parts, styles.SubtitleStyle.Render(fmt.Sprintf("Page %d of %d • Showing %d-%d of %s events",
			v.Page, v.TotalPages, v.From, v.To, humanize.Comma(int64(v.FilteredCount)))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderTable(v catalog.PageView) string {
	titleWidth := max(20, m.width-outcomeWidth-tournamentWidth-volumeWidth-6)

	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(
		styles.Pad("EVENT", titleWidth) + " " +
			styles.Pad("OUTCOME", outcomeWidth) + " " +
			styles.Pad("TOURNAMENT", tournamentWidth) + " " +
			styles.PadLeft("VOLUME", volumeWidth)))
	b.WriteString("\n")

	if len(v.Events) == 0 {
		b.WriteString(styles.MutedStyle.Render("No events match the current filters"))
		return b.String()
	}

	start, end := window(len(v.Events), m.cursor, max(1, m.height-chromeLines))
	for i := start; i < end; i++ {
		ev := &v.Events[i]
		row := styles.Pad(ev.Title, titleWidth) + " " +
			styles.OutcomeStyle.Render(styles.Pad(ev.Outcome, outcomeWidth)) + " " +
			styles.MutedStyle.Render(styles.Pad(ev.DisplaySeries(), tournamentWidth)) + " " +
			styles.VolumeStyle.Render(styles.PadLeft(FormatVolume(ev.Volume), volumeWidth))
		if i == m.cursor {
			b.WriteString(styles.SelectedRowStyle.Render("> " + row))
		} else {
			b.WriteString(styles.RowStyle.Render("  " + row))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// window returns the [start, end) slice of n rows of at most size rows that
// keeps cursor visible.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
