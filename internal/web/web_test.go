package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/config"
	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
	"github.com/rewired-gh/polysoccer/internal/session"
)

type stubSource struct {
	events []models.Event
	err    error
	prices models.PriceLookup
}

func (s *stubSource) LoadEvents(ctx context.Context) ([]models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func (s *stubSource) LoadPriceHistory(ctx context.Context) (models.PriceLookup, error) {
	return s.prices, nil
}

func testEvents() []models.Event {
	return []models.Event{
		{ID: "1", Title: "A vs B", Outcome: "A wins", Series: "Cup", Volume: 100, PolymarketURL: "https://polymarket.com/event/a-vs-b"},
		{ID: "2", Title: "C vs D", Outcome: "Draw", Volume: 50},
		{ID: "3", Title: "E vs F", Outcome: "F wins", Series: "League", Volume: 1234.5},
	}
}

func testPrices(t *testing.T) models.PriceLookup {
	t.Helper()
	lookup, err := models.DecodePriceLookup([]byte(`{"1": {"n": ["X", "Draw", "Y"], "p": [[1000, 0.5, 0.5, null, null, 0.1, 0.9]]}}`))
	if err != nil {
		t.Fatal(err)
	}
	return lookup
}

func newTestServer(t *testing.T, src *stubSource, pageSize int, load bool) (*Server, *catalog.Store) {
	t.Helper()
	store := catalog.NewStore()
	if load {
		_ = store.Load(context.Background(), src)
	}
	srv := NewServer(config.ServerConfig{Addr: ":0"}, Deps{
		Store:        store,
		Source:       src,
		Prices:       pricehistory.NewLookup(src),
		Sessions:     session.NewManager(store, pageSize, time.Hour, 100),
		PageSize:     pageSize,
		SessionTTL:   time.Hour,
		PriceTimeout: time.Second,
	})
	return srv, store
}

// browser replays the session cookie across requests.
type browser struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (b *browser) do(method, target string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.h.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) page() string {
	b.t.Helper()
	w := b.do(http.MethodGet, "/")
	if w.Code != http.StatusOK {
		b.t.Fatalf("GET / status = %d", w.Code)
	}
	return w.Body.String()
}

func (b *browser) action(target string) {
	b.t.Helper()
	w := b.do(http.MethodGet, target)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		b.t.Fatalf("GET %s = %d to %q, want redirect to /", target, w.Code, w.Header().Get("Location"))
	}
}

func TestIndex_RendersCatalog(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{events: testEvents()}, 500, true)
	b := &browser{t: t, h: srv.Handler()}

	body := b.page()
	if b.cookie == nil {
		t.Fatal("session cookie not set")
	}
	for _, want := range []string{
		"3 events • $1,384.5 total volume",
		"A vs B", "C vs D", "E vs F",
		">Other<",
		`<option value="Cup"`,
		`target="_blank" rel="noopener noreferrer"`,
		`href="/events/1"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `<option value="Other"`) {
		t.Error("Other must not be a tournament option")
	}
	if strings.Contains(body, "Page 1 of") {
		t.Error("pagination controls must be hidden for a single page")
	}
}

func TestIndex_SearchAndTournament(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{events: testEvents()}, 500, true)
	b := &browser{t: t, h: srv.Handler()}
	b.page()

	b.action("/search?q=" + url.QueryEscape("d"))
	body := b.page()
	if !strings.Contains(body, "C vs D") || strings.Contains(body, "A vs B") {
		t.Error(`query "d" must show only C vs D`)
	}
	if !strings.Contains(body, "1 events • $50 total volume") {
		t.Error("aggregate volume must follow the filtered set")
	}

	b.action("/search?q=")
	b.action("/tournament?t=League")
	body = b.page()
	if !strings.Contains(body, "E vs F") || strings.Contains(body, "C vs D") {
		t.Error("tournament filter not applied")
	}
	if !strings.Contains(body, `<option value="League" selected>`) {
		t.Error("selected tournament not marked")
	}

	other := &browser{t: t, h: srv.Handler()}
	if !strings.Contains(other.page(), "3 events") {
		t.Error("filter state leaked into another session")
	}
}

func TestIndex_Pagination(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{events: testEvents()}, 1, true)
	b := &browser{t: t, h: srv.Handler()}

	body := b.page()
	if !strings.Contains(body, "Page 1 of 3 • Showing 1-1 of 3 events") {
		t.Errorf("pager text missing on page 1")
	}
	if !strings.Contains(body, `<span class="disabled">Previous</span>`) {
		t.Error("Previous must be disabled on page 1")
	}

	b.action("/page/next")
	b.action("/page/next")
	b.action("/page/next")
	body = b.page()
	if !strings.Contains(body, "Page 3 of 3") || !strings.Contains(body, `<span class="disabled">Next</span>`) {
		t.Error("Next must stop at the last page")
	}

	b.action("/tournament?t=all")
	if !strings.Contains(b.page(), "Page 1 of 3") {
		t.Error("tournament change must reset to page 1")
	}
}

func TestIndex_DetailLifecycle(t *testing.T) {
	src := &stubSource{events: testEvents(), prices: testPrices(t)}
	srv, _ := newTestServer(t, src, 500, true)
	b := &browser{t: t, h: srv.Handler()}
	b.page()

	b.action("/events/1")
	body := b.page()
	for _, want := range []string{`role="dialog"`, "View on Polymarket", ">X<", "0.500", "0.900", "<td>—</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("detail missing %q", want)
		}
	}

	b.action("/detail/click?target=" + pricehistory.TargetContent)
	if !strings.Contains(b.page(), `role="dialog"`) {
		t.Error("click inside the dialog must not close it")
	}
	b.action("/detail/click?target=" + pricehistory.TargetOverlay)
	if strings.Contains(b.page(), `role="dialog"`) {
		t.Error("backdrop click must close the dialog")
	}

	b.action("/events/2")
	if !strings.Contains(b.page(), "No price history available for this event") {
		t.Error("missing record must render the no-data state")
	}
	b.action("/detail/close")
	if strings.Contains(b.page(), `role="dialog"`) {
		t.Error("close must hide the dialog")
	}

	if w := b.do(http.MethodGet, "/events/404"); w.Code != http.StatusNotFound {
		t.Errorf("unknown event status = %d, want 404", w.Code)
	}
}

func TestIndex_EscapesEventIDInLinks(t *testing.T) {
	events := []models.Event{{ID: "a/b?c#d", Title: "Odd id", Outcome: "Yes", Volume: 1}}
	src := &stubSource{events: events, prices: models.PriceLookup{}}
	srv, _ := newTestServer(t, src, 500, true)
	b := &browser{t: t, h: srv.Handler()}

	body := b.page()
	if !strings.Contains(body, `href="/events/a%2Fb%3Fc%23d"`) {
		t.Fatalf("event link not path-escaped:\n%s", body)
	}

	b.action("/events/a%2Fb%3Fc%23d")
	if !strings.Contains(b.page(), `role="dialog"`) {
		t.Error("escaped link did not open the detail")
	}

	w := b.do(http.MethodGet, "/api/events/a%2Fb%3Fc%23d/prices")
	if w.Code != http.StatusOK {
		t.Errorf("prices for escaped id status = %d, want 200", w.Code)
	}
}

func TestIndex_SearchSubmitsOnInput(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{events: testEvents()}, 500, true)
	b := &browser{t: t, h: srv.Handler()}

	body := b.page()
	if !strings.Contains(body, `name="q"`) || !strings.Contains(body, "oninput=") {
		t.Error("search input must submit while typing")
	}
	b.action("/search?q=e+v")
	if !strings.Contains(b.page(), "autofocus") {
		t.Error("search input must keep focus after an applied query")
	}
}

// cancelAwareSource fails a load whose context is already cancelled.
type cancelAwareSource struct {
	stubSource
}

func (s *cancelAwareSource) LoadEvents(ctx context.Context) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.stubSource.LoadEvents(ctx)
}

func TestReload_SurvivesClientDisconnect(t *testing.T) {
	src := &cancelAwareSource{stubSource{err: errors.New("down")}}
	store := catalog.NewStore()
	_ = store.Load(context.Background(), src)
	srv := NewServer(config.ServerConfig{Addr: ":0"}, Deps{
		Store:    store,
		Source:   src,
		Prices:   pricehistory.NewLookup(src),
		Sessions: session.NewManager(store, 500, time.Hour, 100),
		PageSize: 500,
	})

	src.err = nil
	src.events = testEvents()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/reload", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /reload status = %d", w.Code)
	}
	if store.State() != catalog.Loaded {
		t.Errorf("state after reload from a gone client = %v, want loaded", store.State())
	}
}

func TestIndex_LoadingAndFailure(t *testing.T) {
	src := &stubSource{err: errors.New("unexpected status: 404")}
	srv, store := newTestServer(t, src, 500, false)
	b := &browser{t: t, h: srv.Handler()}

	if body := b.page(); !strings.Contains(body, "Loading events...") {
		t.Error("uninitialized store must render the loading placeholder")
	}

	_ = store.Load(context.Background(), src)
	body := b.page()
	if !strings.Contains(body, "Failed to load events: unexpected status: 404") || !strings.Contains(body, "Retry") {
		t.Error("failed load must render the error and a retry control")
	}

	src.err = nil
	src.events = testEvents()
	if w := b.do(http.MethodPost, "/reload"); w.Code != http.StatusSeeOther {
		t.Fatalf("POST /reload status = %d", w.Code)
	}
	if store.State() != catalog.Loaded {
		t.Fatalf("state after retry = %v", store.State())
	}
	if !strings.Contains(b.page(), "3 events") {
		t.Error("catalog not shown after retry")
	}
}

func TestAPI_Events(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{events: testEvents()}, 2, true)
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?q=vs&page=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp eventsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Page != 2 || resp.TotalPages != 2 || len(resp.Events) != 1 || resp.Events[0].ID != "3" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Filtered != 3 || resp.TotalVolume != 1384.5 || resp.From != 3 || resp.To != 3 {
		t.Errorf("response = %+v", resp)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?tournament=Cup", nil))
	resp = eventsResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Events) != 1 || resp.Events[0].ID != "1" || resp.TotalVolume != 100 {
		t.Errorf("tournament response = %+v", resp)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?page=zero", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad page status = %d, want 400", w.Code)
	}
}

func TestAPI_NotLoaded(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{}, 500, false)
	h := srv.Handler()
	for _, path := range []string{"/api/events", "/api/tournaments", "/api/events/1/prices"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want 503", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"state":"uninitialized"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestAPI_TournamentsAndPrices(t *testing.T) {
	src := &stubSource{events: testEvents(), prices: testPrices(t)}
	srv, _ := newTestServer(t, src, 500, true)
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tournaments", nil))
	if got := strings.TrimSpace(w.Body.String()); got != `{"tournaments":["Cup","League"]}` {
		t.Errorf("tournaments = %s", got)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/1/prices", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp pricesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Available || resp.Names.Outcome1 != "X" || len(resp.Rows) != 1 {
		t.Fatalf("prices = %+v", resp)
	}
	if resp.Rows[0].DrawYes != pricehistory.AbsentMarker || resp.Rows[0].Team2No != "0.900" {
		t.Errorf("row = %+v", resp.Rows[0])
	}
	if len(resp.Stats) != models.PriceColumns || resp.Stats[0].Label != "X Yes" || resp.Stats[2].Count != 0 {
		t.Errorf("stats = %+v", resp.Stats)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/2/prices", nil))
	resp = pricesResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Available || len(resp.Rows) != 0 || resp.Names.Outcome1 != "Team 1" {
		t.Errorf("missing record = %+v", resp)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/9/prices", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown event status = %d, want 404", w.Code)
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{50, "$50"},
		{1234.5, "$1,234.5"},
		{1234567.891, "$1,234,567.891"},
	}
	for _, tt := range tests {
		if got := FormatVolume(tt.in); got != tt.want {
			t.Errorf("FormatVolume(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
