package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
)

// APIController serves stateless JSON derivations of the catalog.
type APIController struct {
	deps Deps
}

func NewAPIController(deps Deps) *APIController {
	if deps.PriceTimeout <= 0 {
		deps.PriceTimeout = defaultPriceTimeout
	}
	return &APIController{deps: deps}
}

func (c *APIController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", c.handleHealth)
	rg.GET("/tournaments", c.handleTournaments)
	rg.GET("/events", c.handleEvents)
	rg.GET("/events/:id/prices", c.handlePrices)
}

type eventsResponse struct {
	Events      []models.Event `json:"events"`
	Query       string         `json:"query"`
	Tournament  string         `json:"tournament"`
	Page        int            `json:"page"`
	TotalPages  int            `json:"total_pages"`
	PageSize    int            `json:"page_size"`
	From        int            `json:"from"`
	To          int            `json:"to"`
	Filtered    int            `json:"filtered"`
	CatalogSize int            `json:"catalog_size"`
	TotalVolume float64        `json:"total_volume"`
}

type namesResponse struct {
	Outcome1 string `json:"outcome1"`
	Draw     string `json:"draw"`
	Outcome2 string `json:"outcome2"`
}

type pricesResponse struct {
	EventID   models.EventID            `json:"event_id"`
	Names     namesResponse             `json:"names"`
	Available bool                      `json:"available"`
	Rows      []pricehistory.DisplayRow `json:"rows"`
	Stats     []statsEntry              `json:"stats"`
}

func (c *APIController) handleHealth(ctx *gin.Context) {
	state, cat, err := c.deps.Store.Status()
	body := gin.H{"status": "ok", "state": state.String()}
	if cat != nil {
		body["events"] = cat.Len()
		body["loaded_at"] = cat.LoadedAt()
	}
	if err != nil {
		body["error"] = err.Error()
	}
	ctx.JSON(http.StatusOK, body)
}

// requireCatalog writes a 503 and returns nil when no catalog is loaded.
func (c *APIController) requireCatalog(ctx *gin.Context) *catalog.Catalog {
	cat, err := c.deps.Store.Require()
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"error": err.Error(),
			"state": c.deps.Store.State().String(),
		})
		return nil
	}
	return cat
}

func (c *APIController) handleTournaments(ctx *gin.Context) {
	cat := c.requireCatalog(ctx)
	if cat == nil {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tournaments": cat.Tournaments()})
}

func (c *APIController) handleEvents(ctx *gin.Context) {
	page, ok := parsePage(ctx.Query("page"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	if c.requireCatalog(ctx) == nil {
		return
	}

	view := catalog.NewController(c.deps.Store, c.deps.PageSize)
	view.SetQuery(ctx.Query("q"))
	view.SetTournament(ctx.Query("tournament"))
	view.SetPage(page)
	v := view.View()
	if !v.Available {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not loaded", "state": v.State.String()})
		return
	}

	ctx.JSON(http.StatusOK, eventsResponse{
		Events:      v.Events,
		Query:       v.Query,
		Tournament:  v.Tournament,
		Page:        v.Page,
		TotalPages:  v.TotalPages,
		PageSize:    v.PageSize,
		From:        v.From,
		To:          v.To,
		Filtered:    v.FilteredCount,
		CatalogSize: v.CatalogSize,
		TotalVolume: v.TotalVolume,
	})
}

func (c *APIController) handlePrices(ctx *gin.Context) {
	cat := c.requireCatalog(ctx)
	if cat == nil {
		return
	}
	ev, ok := cat.Event(models.EventID(ctx.Param("id")))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.deps.PriceTimeout)
	defer cancel()
	lookup, err := c.deps.Prices.Get(waitCtx)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	var f pricehistory.Formatter
	d := f.Format(ev.ID, lookup)
	ctx.JSON(http.StatusOK, pricesResponse{
		EventID: d.EventID,
		Names: namesResponse{
			Outcome1: d.Names.Outcome1,
			Draw:     d.Names.Draw,
			Outcome2: d.Names.Outcome2,
		},
		Available: d.Available,
		Rows:      d.Rows,
		Stats:     statsEntries(d),
	})
}
