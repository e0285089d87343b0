package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/models"
	"github.com/rewired-gh/polysoccer/internal/session"
)

// SessionCookie holds the viewer's session id.
const SessionCookie = "polysoccer_session"

const defaultPriceTimeout = 10 * time.Second

// ViewerController serves the HTML page and the per-session actions.
type ViewerController struct {
	deps Deps
}

func NewViewerController(deps Deps) *ViewerController {
	if deps.PriceTimeout <= 0 {
		deps.PriceTimeout = defaultPriceTimeout
	}
	return &ViewerController{deps: deps}
}

func (c *ViewerController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", c.handleIndex)
	rg.GET("/search", c.action(func(ctx *gin.Context, s *session.Session) {
		s.View.SetQuery(ctx.Query("q"))
	}))
	rg.GET("/tournament", c.action(func(ctx *gin.Context, s *session.Session) {
		s.View.SetTournament(ctx.Query("t"))
	}))
	rg.GET("/page/next", c.action(func(ctx *gin.Context, s *session.Session) {
		s.View.NextPage()
	}))
	rg.GET("/page/prev", c.action(func(ctx *gin.Context, s *session.Session) {
		s.View.PrevPage()
	}))
	rg.GET("/detail/close", c.action(func(ctx *gin.Context, s *session.Session) {
		s.Detail.Close()
	}))
	rg.GET("/detail/click", c.action(func(ctx *gin.Context, s *session.Session) {
		s.Detail.HandleClick(ctx.Query("target"))
	}))
	rg.GET("/events/:id", c.handleOpenEvent)
	rg.POST("/reload", c.handleReload)
}

// session returns the caller's session, creating one and setting the cookie
// when the request carries none or an expired one.
func (c *ViewerController) session(ctx *gin.Context) *session.Session {
	id, _ := ctx.Cookie(SessionCookie)
	s, created := c.deps.Sessions.GetOrCreate(id)
	if created {
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(SessionCookie, s.ID, int(c.deps.SessionTTL.Seconds()), "/", "", false, true)
	}
	return s
}

// action wraps a session mutation that redirects back to the page.
func (c *ViewerController) action(fn func(ctx *gin.Context, s *session.Session)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		s := c.session(ctx)
		s.Lock()
		fn(ctx, s)
		s.Unlock()
		ctx.Redirect(http.StatusSeeOther, "/")
	}
}

func (c *ViewerController) handleIndex(ctx *gin.Context) {
	s := c.session(ctx)
	s.Lock()
	defer s.Unlock()

	view := s.View.View()
	data := pageData{
		View:    view,
		Loading: !view.Available && !view.Failed(),
	}
	if ev, open := s.Detail.Event(); open {
		data.Detail = c.detail(ctx.Request.Context(), s, ev)
	}
	ctx.HTML(http.StatusOK, "index.html", data)
}

func (c *ViewerController) detail(ctx context.Context, s *session.Session, ev models.Event) *detailData {
	d := &detailData{Event: ev}
	waitCtx, cancel := context.WithTimeout(ctx, c.deps.PriceTimeout)
	defer cancel()
	lookup, err := c.deps.Prices.Get(waitCtx)
	if err != nil {
		d.LoadErr = err.Error()
		d.Detail = s.Formatter.Format(ev.ID, nil)
		return d
	}
	d.Detail = s.Formatter.Format(ev.ID, lookup)
	return d
}

func (c *ViewerController) handleOpenEvent(ctx *gin.Context) {
	cat, err := c.deps.Store.Require()
	if err != nil {
		ctx.String(http.StatusServiceUnavailable, "catalog not loaded")
		return
	}
	ev, ok := cat.Event(models.EventID(ctx.Param("id")))
	if !ok {
		ctx.String(http.StatusNotFound, "event not found")
		return
	}
	s := c.session(ctx)
	s.Lock()
	s.Detail.Open(ev)
	s.Unlock()
	ctx.Redirect(http.StatusSeeOther, "/")
}

// handleReload retries the catalog load after a failure. The load outlives
// the request so a client that goes away does not fail it again.
func (c *ViewerController) handleReload(ctx *gin.Context) {
	if c.deps.Store.State() == catalog.LoadFailed {
		loadCtx := context.WithoutCancel(ctx.Request.Context())
		if err := c.deps.Store.Load(loadCtx, c.deps.Source); err != nil && !errors.Is(err, catalog.ErrStaleLoad) {
			logger.Warn("Catalog retry from %s failed: %v", ctx.ClientIP(), err)
		}
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}
