// components/public/public.go
//
// Anonymous, QR-reachable read surface.
//
//   GET /api/public/sites/{code}         → public view JSON
//   GET /api/public/sites/{code}/photos  → site + filtered gallery
//   GET /s/{code}                        → the same view as an HTML page
//
// {code} is anything the resolver accepts: a short code or a site UUID,
// percent-encoded or not.  An unknown site is 404 in both dialects; the
// HTML route renders a small "not found" page instead of a JSON body.
//
//------------------------------------------------------------------------------

package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/api"
	"github.com/reglanz/genba/internal/component"
	"github.com/reglanz/genba/internal/head"
	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/poster"
	"github.com/reglanz/genba/internal/publicview"
	"github.com/reglanz/genba/internal/site"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Resolver turns a code or id into a live site.  *site.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (*site.Record, error)
}

// Assembler builds the payloads.  *publicview.Assembler satisfies it.
type Assembler interface {
	Assemble(ctx context.Context, s *site.Record) (*publicview.View, error)
	Gallery(ctx context.Context, s *site.Record, f photo.Filter) (*publicview.Gallery, error)
}

// Renderer draws HTML pages.  *view.Engine satisfies it.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, h *head.Builder, data any) error
}

// Component serves the public routes.
type Component struct {
	resolver  Resolver
	assembler Assembler
	pages     Renderer
	baseURL   string
	loc       *time.Location
	log       *zap.SugaredLogger
}

// New wires the component.  baseURL feeds og:url; loc interprets the
// gallery's date filter.
func New(res Resolver, asm Assembler, pages Renderer, baseURL string, loc *time.Location) *Component {
	if loc == nil {
		loc = time.UTC
	}
	return &Component{
		resolver:  res,
		assembler: asm,
		pages:     pages,
		baseURL:   baseURL,
		loc:       loc,
		log:       zap.S().Named("public"),
	}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string         { return "public" }
func (c *Component) Prefix() string       { return "/" }
func (c *Component) Migrations() []string { return nil }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/s/{code}", c.handlePage)
	r.Route("/api/public/sites/{code}", func(sr chi.Router) {
		sr.Get("/", c.handleView)
		sr.Get("/photos", c.handleGallery)
	})
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

// code returns the raw path segment.  chi matches on the escaped path when
// one exists, so decoding is left to site.Normalize.
func code(r *http.Request) string {
	return chi.URLParam(r, "code")
}

func (c *Component) handleView(w http.ResponseWriter, r *http.Request) {
	s, err := c.resolver.Resolve(r.Context(), code(r))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	v, err := c.assembler.Assemble(r.Context(), s)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, v)
}

func (c *Component) handleGallery(w http.ResponseWriter, r *http.Request) {
	s, err := c.resolver.Resolve(r.Context(), code(r))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	g, err := c.assembler.Gallery(r.Context(), s, photo.Filter{
		Phase:    q.Get("phase"),
		Location: q.Get("location"),
		Date:     q.Get("date"),
		Loc:      c.loc,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, g)
}

func (c *Component) handlePage(w http.ResponseWriter, r *http.Request) {
	h := head.New()
	h.NoIndex()

	s, err := c.resolver.Resolve(r.Context(), code(r))
	if errors.Is(err, site.ErrNotFound) {
		h.SetTitle("Not found")
		c.render(w, r, http.StatusNotFound, "notfound", h, nil)
		return
	}
	if err != nil {
		c.fail(w, r, err)
		return
	}
	v, err := c.assembler.Assemble(r.Context(), s)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	h.SetTitle(s.Name)
	h.OpenGraph(s.Name, poster.TargetURL(c.baseURL, s))
	if s.Address != nil && *s.Address != "" {
		h.Description(*s.Address)
	}
	c.render(w, r, http.StatusOK, "site", h, v)
}

func (c *Component) render(w http.ResponseWriter, r *http.Request, status int, name string, h *head.Builder, data any) {
	if err := c.pages.Render(w, r, status, name, h, data); err != nil {
		c.fail(w, r, err)
	}
}

func (c *Component) fail(w http.ResponseWriter, r *http.Request, err error) {
	c.log.Errorw("public page failed", "path", r.URL.Path, "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
