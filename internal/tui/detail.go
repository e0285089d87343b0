package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
	"github.com/rewired-gh/polysoccer/internal/tui/styles"
)

const (
	timeWidth  = 14
	priceWidth = 8
)

func (m *Model) renderDetail(ev models.Event) string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render(ev.Title),
		styles.SubtitleStyle.Render(fmt.Sprintf("Outcome: %s  Tournament: %s  Volume: %s",
			ev.Outcome, ev.DisplaySeries(), FormatVolume(ev.Volume))),
	)
	if ev.PolymarketURL != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header,
			styles.MutedStyle.Render("View on Polymarket: "+ev.PolymarketURL))
	}

	var body string
	switch {
	case m.pricesLoading:
		body = styles.MutedStyle.Render("Loading price history...")
	case m.pricesErr != nil:
		body = styles.ErrorStyle.Render(fmt.Sprintf("Price history could not be loaded: %v\nPress r to retry", m.pricesErr))
	default:
		d := m.formatter.Format(ev.ID, m.lookup)
		if !d.Available {
			body = styles.MutedStyle.Render("No price history available for this event")
		} else {
			body = m.renderPriceTable(d)
		}
	}

	width := max(20, m.width-4)
	return styles.DialogStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body))
}

func (m *Model) renderPriceTable(d pricehistory.Detail) string {
	group := func(name string) string {
		return styles.Pad(name, priceWidth*2+1)
	}
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(styles.Pad("", timeWidth) + " " +
		group(d.Names.Outcome1) + " " + group(d.Names.Draw) + " " + group(d.Names.Outcome2)))
	b.WriteString("\n")

	sub := styles.Pad("Time", timeWidth)
	for i := 0; i < models.PriceColumns; i++ {
		label := "Yes"
		if i%2 == 1 {
			label = "No"
		}
		sub += " " + styles.PadLeft(label, priceWidth)
	}
	b.WriteString(styles.HeaderStyle.Render(sub))

	size := max(1, m.height-chromeLines-4)
	if m.detailOffset > len(d.Rows)-size {
		m.detailOffset = max(0, len(d.Rows)-size)
	}
	end := min(len(d.Rows), m.detailOffset+size)
	for _, row := range d.Rows[m.detailOffset:end] {
		line := styles.PadLeft(row.Time, timeWidth)
		for _, cell := range row.Cells() {
			line += " " + styles.PadLeft(cell, priceWidth)
		}
		b.WriteString("\n")
		b.WriteString(styles.RowStyle.Render(line))
	}
	if len(d.Rows) > size {
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("Rows %d-%d of %d", m.detailOffset+1, end, len(d.Rows))))
	}
	return b.String()
}
