package admin

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/reglanz/genba/internal/api"
	"github.com/reglanz/genba/internal/site"
	"github.com/reglanz/genba/internal/storage"
)

// multipartSlack covers form boundaries and headers around the file part.
const multipartSlack = 1 << 20

type uploadResult struct {
	OK       bool   `json:"ok"`
	URL      string `json:"url"`
	Archived string `json:"archived,omitempty"`
}

// handleScheduleUpload stores the PDF in object storage, points the site's
// schedule_url at it, and keeps a local copy when the archive is enabled.
func (c *Component) handleScheduleUpload(w http.ResponseWriter, r *http.Request) {
	rec := c.liveSite(w, r)
	if rec == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUpload+multipartSlack)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		api.Error(w, r, site.Invalid("file", "upload too large or malformed"))
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		api.Error(w, r, site.Invalid("file", "required"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxUpload+1))
	if err != nil {
		api.Error(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	if err := storage.CheckPDF(data); err != nil {
		api.Error(w, r, site.Invalid("file", err.Error()))
		return
	}

	publicURL, err := c.Objects.Put(r.Context(), storage.ScheduleKey(rec.ID), "application/pdf",
		bytes.NewReader(data), int64(len(data)))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	p := &site.Patch{}
	if err := p.Set("schedule_url", &publicURL); err != nil {
		api.Error(w, r, err)
		return
	}
	if _, err := c.Sites.Update(r.Context(), rec.ID, p); err != nil {
		api.Error(w, r, err)
		return
	}

	out := uploadResult{OK: true, URL: publicURL}
	saved, err := c.Archive.Save(rec.ID, storage.KindSchedule, data)
	if err != nil {
		c.log.Warnw("schedule archive failed", "site", rec.ID, "err", err)
	} else {
		out.Archived = saved.Latest
	}

	c.audit(r, rec.ID, "schedule uploaded")
	api.JSON(w, http.StatusOK, out)
}

func (c *Component) handlePoster(w http.ResponseWriter, r *http.Request) {
	rec := c.liveSite(w, r)
	if rec == nil {
		return
	}
	pdf, err := c.Posters.Generate(rec)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	name := "qr-poster-" + rec.Identifier() + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="qr-poster.pdf"; filename*=UTF-8''`+url.PathEscape(name))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", fmt.Sprint(len(pdf)))
	_, _ = w.Write(pdf)
}
