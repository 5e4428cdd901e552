package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/publicview"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/site"
	"github.com/reglanz/genba/internal/view"
)

const siteID = "0b5c6a52-6f4e-4a38-9b0e-3f1f2f7d9a11"

type finder struct{ rec *site.Record }

func (f finder) ByID(_ context.Context, id string) (*site.Record, error) {
	if id == f.rec.ID {
		return f.rec, nil
	}
	return nil, site.ErrNotFound
}

func (f finder) ByCode(_ context.Context, code string) (*site.Record, error) {
	if code == f.rec.Code {
		return f.rec, nil
	}
	return nil, site.ErrNotFound
}

type resources struct{ err error }

func (r resources) ListBySite(context.Context, string) ([]resource.Resource, error) {
	return []resource.Resource{{ID: "r1", SiteID: siteID, Category: resource.Schedule, Title: "Master schedule", URL: "https://x/s.pdf"}}, r.err
}

type photos struct{ lastFilter photo.Filter }

func (p *photos) Recent(context.Context, string, int) ([]photo.Photo, int, error) {
	return []photo.Photo{{ID: "p1", ImageURL: "https://x/1.jpg"}}, 9, nil
}

func (p *photos) List(_ context.Context, _ string, f photo.Filter) ([]photo.Photo, error) {
	p.lastFilter = f
	return nil, nil
}

func strp(s string) *string { return &s }

func newHandler(t *testing.T, res resources) (http.Handler, *photos) {
	t.Helper()
	rec := &site.Record{
		ID:        siteID,
		Code:      "001",
		Name:      "Tanaka house",
		QuoteURL:  strp("https://internal/quote.pdf"),
		Notes:     strp("client is difficult"),
		Address:   strp("1-2-3 Chuo, Osaka"),
		Board:     site.Board{{ID: "m1", Content: "hello", Author: "Sato", Date: time.Now().UTC()}},
		CreatedAt: time.Now(),
	}
	ph := &photos{}
	pages, err := view.New("", time.UTC)
	require.NoError(t, err)
	c := New(site.NewResolver(finder{rec}), publicview.NewAssembler(res, ph, 6), pages, "https://genba.example", time.FixedZone("JST", 9*3600))
	return c.Routes(), ph
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPublicViewJSON(t *testing.T) {
	h, _ := newHandler(t, resources{})

	for _, path := range []string{"/api/public/sites/001", "/api/public/sites/" + siteID, "/api/public/sites/%20001%20"} {
		rec := get(h, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		body := rec.Body.String()
		assert.NotContains(t, body, "quote", path)
		assert.NotContains(t, body, "difficult", path)

		var v publicview.View
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Equal(t, "Tanaka house", v.Site.Name)
		assert.Len(t, v.Messages, 1)
		assert.Equal(t, 9, v.PhotoCount)
		assert.Len(t, v.Resources[resource.Schedule], 1)
		assert.NotNil(t, v.Resources[resource.Doc])
	}
}

func TestPublicViewNotFound(t *testing.T) {
	h, _ := newHandler(t, resources{})
	rec := get(h, "/api/public/sites/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"site not found"}`, rec.Body.String())
}

func TestPublicViewSubFetchFailure(t *testing.T) {
	h, _ := newHandler(t, resources{err: errors.New("db gone")})
	rec := get(h, "/api/public/sites/001")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db gone")
}

func TestGalleryPassesFilter(t *testing.T) {
	h, ph := newHandler(t, resources{})
	rec := get(h, "/api/public/sites/001/photos?phase=foundation&location=north&date=2026-04-01")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "foundation", ph.lastFilter.Phase)
	assert.Equal(t, "north", ph.lastFilter.Location)
	assert.Equal(t, "2026-04-01", ph.lastFilter.Date)
	assert.Equal(t, "JST", ph.lastFilter.Loc.String())
	assert.JSONEq(t, `[]`, string(mustField(t, rec.Body.Bytes(), "photos")))
}

func TestHTMLPage(t *testing.T) {
	h, _ := newHandler(t, resources{})

	rec := get(h, "/s/001")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Tanaka house</title>")
	assert.Contains(t, body, `content="https://genba.example/s/001"`)
	assert.Contains(t, body, `noindex`)
	assert.Contains(t, body, "hello")
	assert.NotContains(t, body, "quote.pdf")

	rec = get(h, "/s/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "現場が見つかりません")
}

func mustField(t *testing.T, raw []byte, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[key]
}
