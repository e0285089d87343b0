package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/rewired-gh/polysoccer/internal/models"
)

func loadedStore(t *testing.T, events []models.Event) *Store {
	t.Helper()
	s := NewStore()
	if err := s.Load(context.Background(), &stubSource{events: events}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestController_BeforeLoad(t *testing.T) {
	c := NewController(NewStore(), 10)
	v := c.View()
	if v.State != Uninitialized || v.Available {
		t.Errorf("view = %+v, want uninitialized and unavailable", v)
	}
	if v.Page != 1 || v.TotalPages != 1 || len(v.Events) != 0 {
		t.Errorf("view page = %d/%d events = %d", v.Page, v.TotalPages, len(v.Events))
	}
	if c.Filtered() != nil {
		t.Error("Filtered() must be nil before load")
	}
	c.NextPage()
	if c.CurrentPage() != 1 {
		t.Errorf("page = %d, want 1", c.CurrentPage())
	}
}

func TestController_LoadFailedView(t *testing.T) {
	s := NewStore()
	_ = s.Load(context.Background(), &stubSource{err: errors.New("404 not found")})
	v := NewController(s, 10).View()
	if !v.Failed() {
		t.Error("view must report failure")
	}
	if v.Err == "" {
		t.Error("view must carry the error text")
	}
	if v.Available {
		t.Error("failed view must not be available")
	}
}

func TestController_Paging(t *testing.T) {
	c := NewController(loadedStore(t, largeCatalog(25)), 10)

	v := c.View()
	if v.TotalPages != 3 || v.Page != 1 || len(v.Events) != 10 {
		t.Fatalf("view = page %d/%d with %d events", v.Page, v.TotalPages, len(v.Events))
	}
	if v.HasPrev || !v.HasNext {
		t.Errorf("page 1 prev/next = %v/%v", v.HasPrev, v.HasNext)
	}
	if v.From != 1 || v.To != 10 {
		t.Errorf("range = %d-%d, want 1-10", v.From, v.To)
	}

	c.NextPage()
	c.NextPage()
	c.NextPage() // clamped at the last page
	v = c.View()
	if v.Page != 3 || len(v.Events) != 5 {
		t.Errorf("last page = %d with %d events", v.Page, len(v.Events))
	}
	if !v.HasPrev || v.HasNext {
		t.Errorf("last page prev/next = %v/%v", v.HasPrev, v.HasNext)
	}
	if v.From != 21 || v.To != 25 {
		t.Errorf("range = %d-%d, want 21-25", v.From, v.To)
	}

	c.PrevPage()
	if c.CurrentPage() != 2 {
		t.Errorf("page = %d, want 2", c.CurrentPage())
	}
	c.SetPage(-4)
	if c.CurrentPage() != 1 {
		t.Errorf("page = %d, want 1", c.CurrentPage())
	}
	c.SetPage(99)
	if c.CurrentPage() != 3 {
		t.Errorf("page = %d, want 3", c.CurrentPage())
	}
}

func TestController_FilterChangeResetsPage(t *testing.T) {
	c := NewController(loadedStore(t, largeCatalog(100)), 10)

	c.SetPage(3)
	// The new filtered set still has more than 3 pages; the reset must happen anyway.
	c.SetQuery("team")
	if c.CurrentPage() != 1 {
		t.Errorf("page after SetQuery = %d, want 1", c.CurrentPage())
	}
	if v := c.View(); v.TotalPages < 3 || v.Page != 1 {
		t.Errorf("view page %d of %d", v.Page, v.TotalPages)
	}

	c.SetPage(2)
	c.SetTournament("La Liga")
	if c.CurrentPage() != 1 {
		t.Errorf("page after SetTournament = %d, want 1", c.CurrentPage())
	}

	c.SetTournament("")
	if c.Tournament() != AllTournaments {
		t.Errorf("empty tournament = %q, want all", c.Tournament())
	}
}

func TestController_ViewMatchesPureFunctions(t *testing.T) {
	events := largeCatalog(60)
	c := NewController(loadedStore(t, events), 7)
	c.SetQuery("draw")
	c.SetTournament("Serie A")
	c.NextPage()

	filtered := ApplyFilters(events, "draw", "Serie A")
	v := c.View()
	if v.FilteredCount != len(filtered) {
		t.Errorf("filtered count = %d, want %d", v.FilteredCount, len(filtered))
	}
	if v.TotalVolume != AggregateVolume(filtered) {
		t.Errorf("total volume = %v, want %v", v.TotalVolume, AggregateVolume(filtered))
	}
	want := Paginate(filtered, v.Page, 7)
	if len(v.Events) != len(want) {
		t.Fatalf("page events = %d, want %d", len(v.Events), len(want))
	}
	for i := range want {
		if v.Events[i].ID != want[i].ID {
			t.Errorf("event %d = %s, want %s", i, v.Events[i].ID, want[i].ID)
		}
	}
	if v.CatalogSize != 60 {
		t.Errorf("catalog size = %d, want 60", v.CatalogSize)
	}
}

func TestController_Memoization(t *testing.T) {
	s := loadedStore(t, largeCatalog(50))
	c := NewController(s, 10)

	c.View()
	c.View()
	c.NextPage()
	c.View()
	if c.recomputes != 1 {
		t.Errorf("recomputes = %d, want 1 while inputs are unchanged", c.recomputes)
	}

	c.SetQuery("team 1")
	c.View()
	if c.recomputes != 2 {
		t.Errorf("recomputes = %d, want 2 after query change", c.recomputes)
	}

	// A reload yields a new catalog identity and invalidates the memo.
	if err := s.Load(context.Background(), &stubSource{events: largeCatalog(20)}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := c.View()
	if c.recomputes != 3 {
		t.Errorf("recomputes = %d, want 3 after reload", c.recomputes)
	}
	if v.CatalogSize != 20 {
		t.Errorf("catalog size = %d, want 20", v.CatalogSize)
	}
}

func TestController_ReloadClampsPage(t *testing.T) {
	s := loadedStore(t, largeCatalog(50))
	c := NewController(s, 10)
	c.SetPage(5)

	if err := s.Load(context.Background(), &stubSource{events: largeCatalog(15)}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := c.View()
	if v.Page != 2 || v.TotalPages != 2 {
		t.Errorf("page = %d/%d, want 2/2", v.Page, v.TotalPages)
	}
}

func TestController_EmptyCatalog(t *testing.T) {
	c := NewController(loadedStore(t, []models.Event{}), 500)
	v := c.View()
	if !v.Available || v.Failed() {
		t.Errorf("empty catalog view must be available and not failed: %+v", v)
	}
	if v.TotalPages != 1 || v.FilteredCount != 0 || len(v.Tournaments) != 0 {
		t.Errorf("empty view = %+v", v)
	}
	if v.From != 0 || v.To != 0 {
		t.Errorf("range = %d-%d, want 0-0", v.From, v.To)
	}
}
