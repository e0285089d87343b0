// Package tui is a terminal viewer for the event catalog built on bubbletea.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
	"github.com/rewired-gh/polysoccer/internal/tui/styles"
)

type keyMap struct {
	Quit           key.Binding
	Search         key.Binding
	NextTournament key.Binding
	PrevTournament key.Binding
	NextPage       key.Binding
	PrevPage       key.Binding
	Up             key.Binding
	Down           key.Binding
	Open           key.Binding
	Close          key.Binding
	Retry          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:           key.NewBinding(key.WithKeys("ctrl+c", "q")),
		Search:         key.NewBinding(key.WithKeys("/")),
		NextTournament: key.NewBinding(key.WithKeys("t")),
		PrevTournament: key.NewBinding(key.WithKeys("T")),
		NextPage:       key.NewBinding(key.WithKeys("n", "right")),
		PrevPage:       key.NewBinding(key.WithKeys("p", "left")),
		Up:             key.NewBinding(key.WithKeys("up", "k")),
		Down:           key.NewBinding(key.WithKeys("down", "j")),
		Open:           key.NewBinding(key.WithKeys("enter")),
		Close:          key.NewBinding(key.WithKeys("esc", "backspace")),
		Retry:          key.NewBinding(key.WithKeys("r")),
	}
}

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	store  *catalog.Store
	source catalog.EventSource
	prices *pricehistory.Lookup
	view   *catalog.Controller

	detail    pricehistory.DetailView
	formatter pricehistory.Formatter
	lookup    models.PriceLookup
	pricesErr error
	// pricesLoading is set while a price history fetch is in flight.
	pricesLoading bool
	detailOffset  int

	search    textinput.Model
	searching bool
	cursor    int

	keys      keyMap
	statusMsg string
	width     int
	height    int
	ready     bool
}

// NewModel creates the viewer over a shared catalog store. ctx bounds the
// loads the viewer starts.
func NewModel(ctx context.Context, store *catalog.Store, source catalog.EventSource, prices *pricehistory.Lookup, pageSize int) *Model {
	search := textinput.New()
	search.Placeholder = "Search events or outcomes..."
	search.Prompt = "/ "
	search.CharLimit = 120
	search.Width = 40

	return &Model{
		ctx:    ctx,
		store:  store,
		source: source,
		prices: prices,
		view:   catalog.NewController(store, pageSize),
		search: search,
		keys:   defaultKeyMap(),
	}
}

type loadResultMsg struct {
	err error
}

type pricesMsg struct {
	lookup models.PriceLookup
	err    error
}

// Init starts the initial catalog load unless one already happened.
func (m *Model) Init() tea.Cmd {
	if m.store.State() == catalog.Uninitialized {
		return m.loadCatalog()
	}
	return nil
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.searching {
			return m, m.updateSearch(msg)
		}
		if m.detail.IsOpen() {
			return m, m.updateDetail(msg)
		}
		return m, m.updateList(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(10, msg.Width/2-4)
		m.ready = true

	case loadResultMsg:
		if msg.err != nil {
			m.statusMsg = "Load failed"
		} else {
			m.statusMsg = ""
		}
		m.clampCursor()

	case pricesMsg:
		m.pricesLoading = false
		m.pricesErr = msg.err
		if msg.err == nil {
			m.lookup = msg.lookup
		}
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.view.SetQuery(v)
		m.cursor = 0
	}
	return cmd
}

func (m *Model) updateDetail(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Close):
		m.detail.Close()
	case key.Matches(msg, m.keys.Up):
		if m.detailOffset > 0 {
			m.detailOffset--
		}
	case key.Matches(msg, m.keys.Down):
		m.detailOffset++
	case key.Matches(msg, m.keys.Retry):
		if m.pricesErr != nil && !m.pricesLoading {
			return m.fetchPrices()
		}
	}
	return nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Retry):
		if m.store.State() == catalog.LoadFailed {
			return m.loadCatalog()
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m.search.Focus()

	case key.Matches(msg, m.keys.NextTournament):
		m.cycleTournament(1)
	case key.Matches(msg, m.keys.PrevTournament):
		m.cycleTournament(-1)

	case key.Matches(msg, m.keys.NextPage):
		m.view.NextPage()
		m.cursor = 0
	case key.Matches(msg, m.keys.PrevPage):
		m.view.PrevPage()
		m.cursor = 0

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, m.keys.Open):
		if ev, ok := m.selected(); ok {
			return m.openDetail(ev)
		}
	}
	return nil
}

// cycleTournament moves the tournament filter through "all" and each
// tournament in order, wrapping at both ends.
func (m *Model) cycleTournament(step int) {
	cat := m.store.Snapshot()
	if cat == nil {
		return
	}
	options := append([]string{catalog.AllTournaments}, cat.Tournaments()...)
	current := 0
	for i, t := range options {
		if t == m.view.Tournament() {
			current = i
			break
		}
	}
	next := (current + step + len(options)) % len(options)
	m.view.SetTournament(options[next])
	m.cursor = 0
}

func (m *Model) selected() (models.Event, bool) {
	v := m.view.View()
	if m.cursor < 0 || m.cursor >= len(v.Events) {
		return models.Event{}, false
	}
	return v.Events[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.view.View().Events)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) openDetail(ev models.Event) tea.Cmd {
	m.detail.Open(ev)
	m.detailOffset = 0
	if m.lookup != nil || m.pricesLoading {
		return nil
	}
	return m.fetchPrices()
}

func (m *Model) loadCatalog() tea.Cmd {
	m.statusMsg = "Loading events..."
	ctx, store, src := m.ctx, m.store, m.source
	return func() tea.Msg {
		return loadResultMsg{err: store.Load(ctx, src)}
	}
}

func (m *Model) fetchPrices() tea.Cmd {
	m.pricesLoading = true
	m.pricesErr = nil
	ctx, prices := m.ctx, m.prices
	return func() tea.Msg {
		lookup, err := prices.Get(ctx)
		if err != nil {
			logger.Warn("Price history fetch failed: %v", err)
		}
		return pricesMsg{lookup: lookup, err: err}
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	if ev, open := m.detail.Event(); open {
		body = m.renderDetail(ev)
	} else {
		body = m.renderCatalog()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	var help []string
	switch {
	case m.searching:
		help = []string{
			styles.StatusBarKeyStyle.Render("enter/esc") + styles.StatusBarDescStyle.Render(" done"),
		}
	case m.detail.IsOpen():
		help = []string{
			styles.StatusBarKeyStyle.Render("↑↓") + styles.StatusBarDescStyle.Render(" scroll"),
			styles.StatusBarKeyStyle.Render("esc") + styles.StatusBarDescStyle.Render(" close"),
			styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
		}
	default:
		help = []string{
			styles.StatusBarKeyStyle.Render("/") + styles.StatusBarDescStyle.Render(" search"),
			styles.StatusBarKeyStyle.Render("t/T") + styles.StatusBarDescStyle.Render(" tournament"),
			styles.StatusBarKeyStyle.Render("←→") + styles.StatusBarDescStyle.Render(" page"),
			styles.StatusBarKeyStyle.Render("enter") + styles.StatusBarDescStyle.Render(" prices"),
			styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
		}
	}

	helpStr := help[0]
	for _, h := range help[1:] {
		helpStr = lipgloss.JoinHorizontal(lipgloss.Center, helpStr, " │ ", h)
	}
	if m.statusMsg != "" {
		helpStr += " │ " + m.statusMsg
	}
	return styles.StatusBarStyle.Width(m.width).Render(helpStr)
}
