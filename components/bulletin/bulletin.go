// components/bulletin/bulletin.go
//
// Public bulletin-board write API.
//
// Context
// -------
// Anyone holding the QR code may post to or delete from a site's board.
// Both calls answer with the full, newest-first message list so the page
// can redraw without a second request:
//
//   POST   /api/board  {siteId, content, author}  → {data: [...]}
//   DELETE /api/board  {siteId, messageId}         → {data: [...]}
//
// Posts pass a per-client throttle first.  The throttle fails open: when
// Redis is unreachable the post goes through and the failure is logged.
//
//------------------------------------------------------------------------------

package bulletin

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/api"
	"github.com/reglanz/genba/internal/component"
	"github.com/reglanz/genba/internal/metrics"
	"github.com/reglanz/genba/internal/ratelimit"
	"github.com/reglanz/genba/internal/requestinfo"
	"github.com/reglanz/genba/internal/site"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Board is the write path.  *board.Service satisfies it.
type Board interface {
	Post(ctx context.Context, siteID, content, author string) (site.Board, error)
	Delete(ctx context.Context, siteID, messageID string) (site.Board, error)
}

// Component serves /api/board.
type Component struct {
	board   Board
	limiter *ratelimit.Limiter
	log     *zap.SugaredLogger
}

// New wires the component.  A nil limiter disables throttling.
func New(b Board, l *ratelimit.Limiter) *Component {
	return &Component{board: b, limiter: l, log: zap.S().Named("bulletin")}
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string         { return "bulletin" }
func (c *Component) Prefix() string       { return "/api/board" }
func (c *Component) Migrations() []string { return nil }

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", c.handlePost)
	r.Delete("/", c.handleDelete)
	return r
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type postBody struct {
	SiteID  string `json:"siteId"  validate:"required"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

type deleteBody struct {
	SiteID    string `json:"siteId"    validate:"required"`
	MessageID string `json:"messageId" validate:"required"`
}

func (c *Component) handlePost(w http.ResponseWriter, r *http.Request) {
	var in postBody
	if err := api.Decode(r, &in); err != nil {
		api.Error(w, r, err)
		return
	}

	if err := c.limiter.Allow(r.Context(), requestinfo.ClientKey(r.Context())); err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			metrics.BoardThrottledTotal.Inc()
			api.Error(w, r, err)
			return
		}
		c.log.Warnw("throttle unavailable, allowing post", "err", err)
	}

	msgs, err := c.board.Post(r.Context(), in.SiteID, in.Content, in.Author)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Data(w, http.StatusOK, msgs)
}

func (c *Component) handleDelete(w http.ResponseWriter, r *http.Request) {
	var in deleteBody
	if err := api.Decode(r, &in); err != nil {
		api.Error(w, r, err)
		return
	}
	msgs, err := c.board.Delete(r.Context(), in.SiteID, in.MessageID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Data(w, http.StatusOK, msgs)
}
