package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reglanz/genba/internal/api"
	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/site"
)

// liveSite loads the {id} site or writes the error and returns nil.
func (c *Component) liveSite(w http.ResponseWriter, r *http.Request) *site.Record {
	rec, err := c.Sites.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, r, err)
		return nil
	}
	return rec
}

/*──────────────────────────── resources ───────────────────────────────────*/

func (c *Component) handleListResources(w http.ResponseWriter, r *http.Request) {
	rec := c.liveSite(w, r)
	if rec == nil {
		return
	}
	rs, err := c.Resources.ListBySite(r.Context(), rec.ID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Data(w, http.StatusOK, resource.Group(rs))
}

func (c *Component) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	rec := c.liveSite(w, r)
	if rec == nil {
		return
	}
	var in resource.Input
	if err := api.Decode(r, &in); err != nil {
		api.Error(w, r, err)
		return
	}
	res, err := c.Resources.Create(r.Context(), rec.ID, in)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	c.audit(r, rec.ID, "resource added: "+res.Title)
	api.Data(w, http.StatusCreated, res)
}

func (c *Component) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	var in resource.Input
	if err := api.Decode(r, &in); err != nil {
		api.Error(w, r, err)
		return
	}
	res, err := c.Resources.Update(r.Context(), chi.URLParam(r, "rid"), in)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	c.audit(r, res.SiteID, "resource updated: "+res.Title)
	api.Data(w, http.StatusOK, res)
}

func (c *Component) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := c.Resources.Delete(r.Context(), chi.URLParam(r, "rid")); err != nil {
		api.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/*──────────────────────────── photos ──────────────────────────────────────*/

func (c *Component) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	rec := c.liveSite(w, r)
	if rec == nil {
		return
	}
	q := r.URL.Query()
	ps, err := c.Photos.List(r.Context(), rec.ID, photo.Filter{
		Phase:    q.Get("phase"),
		Location: q.Get("location"),
		Date:     q.Get("date"),
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Data(w, http.StatusOK, ps)
}

func (c *Component) handleCreatePhoto(w http.ResponseWriter, r *http.Request) {
	rec := c.liveSite(w, r)
	if rec == nil {
		return
	}
	var in photo.Input
	if err := api.Decode(r, &in); err != nil {
		api.Error(w, r, err)
		return
	}
	p, err := c.Photos.Create(r.Context(), rec.ID, in)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	c.audit(r, rec.ID, "photo added")
	api.Data(w, http.StatusCreated, p)
}

func (c *Component) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := c.Photos.Delete(r.Context(), chi.URLParam(r, "pid")); err != nil {
		api.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
