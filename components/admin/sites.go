package admin

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reglanz/genba/internal/api"
	"github.com/reglanz/genba/internal/changelog"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/site"
)

// siteDetail is the edit screen payload.
type siteDetail struct {
	Site      *site.Record                   `json:"site"`
	Resources map[string][]resource.Resource `json:"resources"`
}

func (c *Component) handleListSites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := c.Sites.List(r.Context(), site.Filter{
		Query:  q.Get("q"),
		Status: q.Get("status"),
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Data(w, http.StatusOK, rows)
}

func (c *Component) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var d site.Draft
	if err := api.Decode(r, &d); err != nil {
		api.Error(w, r, err)
		return
	}
	rec, err := c.Sites.Create(r.Context(), d)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	c.audit(r, rec.ID, "created")
	api.Data(w, http.StatusCreated, rec)
}

func (c *Component) handleGetSite(w http.ResponseWriter, r *http.Request) {
	rec, err := c.Sites.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	rs, err := c.Resources.ListBySite(r.Context(), rec.ID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Data(w, http.StatusOK, siteDetail{Site: rec, Resources: resource.Group(rs)})
}

// handleUpdateSite serves PATCH (replace == false) and PUT (replace == true).
func (c *Component) handleUpdateSite(replace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]json.RawMessage{}
		if err := json.NewDecoder(io.LimitReader(r.Body, api.MaxBody)).Decode(&body); err != nil {
			api.Error(w, r, site.Invalid("body", "must be a JSON object"))
			return
		}
		p, err := site.PatchFromJSON(body, replace)
		if err != nil {
			api.Error(w, r, err)
			return
		}
		id := chi.URLParam(r, "id")
		rec, err := c.Sites.Update(r.Context(), id, p)
		if err != nil {
			api.Error(w, r, err)
			return
		}
		if !p.Empty() {
			c.audit(r, rec.ID, changelog.Describe(p.Fields()))
		}
		api.Data(w, http.StatusOK, rec)
	}
}

func (c *Component) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.Sites.SoftDelete(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	c.audit(r, id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (c *Component) handleChangelog(w http.ResponseWriter, r *http.Request) {
	rec, err := c.Sites.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	entries, err := c.Changelog.List(r.Context(), rec.ID)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Data(w, http.StatusOK, entries)
}
