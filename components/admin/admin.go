// components/admin/admin.go
//
// Office-side API: site CRUD, documents, photos, schedule upload, and the
// QR poster.  Everything except login sits behind acl.RequireAdmin.
//
// Context
// -------
// The component owns the schema of every table it writes, so its
// Migrations() carry the site, resource, photo, and changelog DDL.
// Collaborators are narrow interfaces; cmd/web passes the concrete sqlx
// stores, the minio object store, the afero archive, the poster generator,
// and the JWT session manager.
//
// Notes
// -----
//   - Changelog writes are best effort.  A failed insert is logged and the
//     edit still succeeds.
//   - Admin edits are last-writer-wins; only the board uses versioning.
//
//------------------------------------------------------------------------------

package admin

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/acl"
	"github.com/reglanz/genba/internal/auth"
	"github.com/reglanz/genba/internal/changelog"
	"github.com/reglanz/genba/internal/component"
	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/ratelimit"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/site"
	"github.com/reglanz/genba/internal/storage"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

/*──────────────────────────── collaborators ───────────────────────────────*/

// Sites is the site table.  *site.Repository satisfies it.
type Sites interface {
	List(ctx context.Context, f site.Filter) ([]site.Record, error)
	ByID(ctx context.Context, id string) (*site.Record, error)
	Create(ctx context.Context, d site.Draft) (*site.Record, error)
	Update(ctx context.Context, id string, p *site.Patch) (*site.Record, error)
	SoftDelete(ctx context.Context, id string) error
}

// Resources is the resource table.  *resource.Store satisfies it.
type Resources interface {
	ListBySite(ctx context.Context, siteID string) ([]resource.Resource, error)
	Create(ctx context.Context, siteID string, in resource.Input) (*resource.Resource, error)
	Update(ctx context.Context, id string, in resource.Input) (*resource.Resource, error)
	Delete(ctx context.Context, id string) error
}

// Photos is the photo table.  *photo.Store satisfies it.
type Photos interface {
	List(ctx context.Context, siteID string, f photo.Filter) ([]photo.Photo, error)
	Create(ctx context.Context, siteID string, in photo.Input) (*photo.Photo, error)
	Delete(ctx context.Context, id string) error
}

// Changelog is the audit trail.  *changelog.Store satisfies it.
type Changelog interface {
	List(ctx context.Context, siteID string) ([]changelog.Entry, error)
	Record(ctx context.Context, siteID, message, by string) error
}

// Objects uploads files.  *storage.ObjectStore satisfies it, nil included.
type Objects interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// Archive keeps local copies.  *storage.Archive satisfies it, nil included.
type Archive interface {
	Save(siteID, kind string, data []byte) (storage.Saved, error)
}

// Posters renders the QR poster.  *poster.Generator satisfies it.
type Posters interface {
	Generate(s *site.Record) ([]byte, error)
}

// Sessions issues and checks the admin cookie.  *session.Manager satisfies it.
type Sessions interface {
	CheckPasscode(pass string) error
	Login(w http.ResponseWriter, r *http.Request) error
	Logout(w http.ResponseWriter, r *http.Request)
	Subject(r *http.Request) (string, bool)
}

// Deps bundles the collaborators.  Objects and Archive may hold nil
// pointers; LoginLimiter may be nil.
type Deps struct {
	Sites        Sites
	Resources    Resources
	Photos       Photos
	Changelog    Changelog
	Objects      Objects
	Archive      Archive
	Posters      Posters
	Sessions     Sessions
	LoginLimiter *ratelimit.Limiter
}

// Component serves /api/admin.
type Component struct {
	Deps
	log *zap.SugaredLogger
}

// New wires the component.
func New(d Deps) *Component {
	return &Component{Deps: d, log: zap.S().Named("admin")}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string   { return "admin" }
func (c *Component) Prefix() string { return "/api/admin" }

func (c *Component) Migrations() []string {
	return []string{site.Schema, resource.Schema, photo.Schema, changelog.Schema}
}

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", c.handleLogin)
	r.Post("/logout", c.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(acl.RequireAdmin(c.Sessions))

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", c.handleListSites)
			r.Post("/", c.handleCreateSite)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", c.handleGetSite)
				r.Patch("/", c.handleUpdateSite(false))
				r.Put("/", c.handleUpdateSite(true))
				r.Delete("/", c.handleDeleteSite)
				r.Get("/changelog", c.handleChangelog)
				r.Get("/resources", c.handleListResources)
				r.Post("/resources", c.handleCreateResource)
				r.Get("/photos", c.handleListPhotos)
				r.Post("/photos", c.handleCreatePhoto)
				r.Post("/schedule", c.handleScheduleUpload)
				r.Get("/qr-poster", c.handlePoster)
			})
		})
		r.Patch("/resources/{rid}", c.handleUpdateResource)
		r.Delete("/resources/{rid}", c.handleDeleteResource)
		r.Delete("/photos/{pid}", c.handleDeletePhoto)
	})
	return r
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// audit records a changelog line attributed to the session subject.
func (c *Component) audit(r *http.Request, siteID, msg string) {
	by, _ := auth.Admin(r.Context())
	if err := c.Changelog.Record(r.Context(), siteID, msg, by); err != nil {
		c.log.Warnw("changelog write failed", "site", siteID, "msg", msg, "err", err)
	}
}
