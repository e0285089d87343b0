package catalog

import (
	"github.com/rewired-gh/polysoccer/internal/models"
)

// PageView is everything a front-end needs to render one state of the catalog view.
type PageView struct {
	State     State
	Err       string
	Available bool // a catalog is loaded, possibly while a reload is in flight

	Query       string
	Tournament  string
	Tournaments []string

	Events        []models.Event
	CatalogSize   int
	FilteredCount int
	TotalVolume   float64

	Page       int
	TotalPages int
	PageSize   int
	From       int
	To         int
	HasPrev    bool
	HasNext    bool
}

// Failed reports whether the view should show the load error instead of a table.
func (v PageView) Failed() bool {
	return v.State == LoadFailed
}

// Controller holds one viewer's filter and pagination state over a shared Store.
// Derived values are recomputed only when the catalog, query or tournament
// change. A Controller is not safe for concurrent use.
type Controller struct {
	store    *Store
	pageSize int

	query      string
	tournament string
	page       int

	memoCatalog    *Catalog
	memoQuery      string
	memoTournament string
	memoFiltered   []models.Event
	memoVolume     float64
	recomputes     int
}

// NewController returns a controller on page 1 with no filters.
func NewController(store *Store, pageSize int) *Controller {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Controller{
		store:      store,
		pageSize:   pageSize,
		tournament: AllTournaments,
		page:       1,
	}
}

func (c *Controller) Query() string      { return c.query }
func (c *Controller) Tournament() string { return c.tournament }
func (c *Controller) CurrentPage() int   { return c.page }
func (c *Controller) PageSize() int      { return c.pageSize }

// SetQuery replaces the search query and resets to page 1.
func (c *Controller) SetQuery(q string) {
	c.query = q
	c.page = 1
}

// SetTournament replaces the tournament selection and resets to page 1.
// An empty selection means AllTournaments.
func (c *Controller) SetTournament(t string) {
	if t == "" {
		t = AllTournaments
	}
	c.tournament = t
	c.page = 1
}

// NextPage advances one page, stopping at the last page.
func (c *Controller) NextPage() {
	c.SetPage(c.page + 1)
}

// PrevPage goes back one page, stopping at page 1.
func (c *Controller) PrevPage() {
	c.SetPage(c.page - 1)
}

// SetPage jumps to page, clamped to [1, TotalPages].
func (c *Controller) SetPage(page int) {
	c.page = page
	c.clamp(c.totalPages())
}

// Filtered returns the memoized filtered set for the current state, or nil
// when no catalog is loaded.
func (c *Controller) Filtered() []models.Event {
	cat := c.store.Snapshot()
	if cat == nil {
		return nil
	}
	filtered, _ := c.derive(cat)
	return filtered
}

// View derives the current page.
func (c *Controller) View() PageView {
	state, cat, err := c.store.Status()
	v := PageView{
		State:      state,
		Query:      c.query,
		Tournament: c.tournament,
		PageSize:   c.pageSize,
		Page:       1,
		TotalPages: 1,
		Events:     []models.Event{},
	}
	if err != nil {
		v.Err = err.Error()
	}
	if cat == nil {
		v.Tournaments = []string{}
		return v
	}

	filtered, volume := c.derive(cat)
	total := TotalPages(len(filtered), c.pageSize)
	c.clamp(total)

	v.Available = true
	v.Tournaments = cat.Tournaments()
	v.CatalogSize = cat.Len()
	v.FilteredCount = len(filtered)
	v.TotalVolume = volume
	v.Page = c.page
	v.TotalPages = total
	v.Events = Paginate(filtered, c.page, c.pageSize)
	v.From, v.To = PageRange(c.page, c.pageSize, len(filtered))
	v.HasPrev = c.page > 1
	v.HasNext = c.page < total
	return v
}

func (c *Controller) totalPages() int {
	cat := c.store.Snapshot()
	if cat == nil {
		return 1
	}
	filtered, _ := c.derive(cat)
	return TotalPages(len(filtered), c.pageSize)
}

func (c *Controller) clamp(total int) {
	if c.page > total {
		c.page = total
	}
	if c.page < 1 {
		c.page = 1
	}
}

func (c *Controller) derive(cat *Catalog) ([]models.Event, float64) {
	if c.memoCatalog == cat &&
		c.memoQuery == c.query &&
		c.memoTournament == c.tournament {
		return c.memoFiltered, c.memoVolume
	}
	c.memoFiltered = ApplyFilters(cat.Events(), c.query, c.tournament)
	c.memoVolume = AggregateVolume(c.memoFiltered)
	c.memoCatalog = cat
	c.memoQuery = c.query
	c.memoTournament = c.tournament
	c.recomputes++
	return c.memoFiltered, c.memoVolume
}
