package view

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglanz/genba/internal/head"
	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/publicview"
	"github.com/reglanz/genba/internal/requestinfo"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/site"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func strp(s string) *string { return &s }

func sampleView() *publicview.View {
	return &publicview.View{
		Site: publicview.Info{
			ID:           "0b5c6a52-6f4e-4a38-9b0e-3f1f2f7d9a11",
			Code:         "001",
			Name:         "Tanaka <house>",
			ManagerPhone: strp("090-1234-5678"),
		},
		Messages: site.Board{{
			ID: "m1", Content: "Concrete pour at 9", Author: "Sato",
			Date: time.Date(2026, 5, 1, 0, 30, 0, 0, time.UTC),
		}},
		Drawings:  publicview.ZipDrawings([]string{"https://x/a.pdf"}, nil),
		Resources: resource.Group([]resource.Resource{{Category: resource.Doc, Title: "Material sheet", URL: "https://x/doc.pdf"}}),
		Photos:    []photo.Photo{},
	}
}

// render runs the request through Enrich so the page sees RequestInfo.
func render(t *testing.T, e *Engine, ua, name string, data any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/s/001", nil)
	req.Header.Set("User-Agent", ua)
	requestinfo.Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := head.New()
		h.SetTitle("page title")
		require.NoError(t, e.Render(w, r, http.StatusOK, name, h, data))
	})).ServeHTTP(rec, req)
	return rec
}

func TestRenderSitePage(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	e, err := New("", jst)
	require.NoError(t, err)

	rec := render(t, e, "curl/8.0", "site", sampleView())
	body := rec.Body.String()

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "<title>page title</title>")
	assert.Contains(t, body, "Tanaka &lt;house&gt;")
	assert.Contains(t, body, "Concrete pour at 9")
	assert.Contains(t, body, "2026-05-01 09:30")
	assert.Contains(t, body, "Drawing 1")
	assert.Contains(t, body, "資料")
	assert.Contains(t, body, "090-1234-5678")
	assert.NotContains(t, body, "tel:")
}

func TestRenderPhoneGetsTelLink(t *testing.T) {
	e, err := New("", nil)
	require.NoError(t, err)

	body := render(t, e, iphoneUA, "site", sampleView()).Body.String()
	assert.Contains(t, body, `href="tel:09012345678"`)
}

func TestRenderEmptyBoard(t *testing.T) {
	e, err := New("", nil)
	require.NoError(t, err)

	v := sampleView()
	v.Messages = site.Board{}
	assert.Contains(t, render(t, e, "", "site", v).Body.String(), "まだ投稿はありません")
}

func TestRenderUnknownPage(t *testing.T) {
	e, err := New("", nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = e.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", nil, nil)
	assert.Error(t, err)
	assert.Zero(t, rec.Body.Len())
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, s string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(s), 0o644))
	}
	write("layout.html", `{{ define "layout" }}[{{ template "content" . }}]{{ end }}`)
	write("notfound.html", `{{ define "content" }}gone{{ end }}`)

	e, err := New(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "[gone]", render(t, e, "", "notfound", nil).Body.String())
}

func TestTel(t *testing.T) {
	assert.Equal(t, "tel:+81312345678", string(tel(" +81 (3) 1234-5678 ")))
	assert.Equal(t, "tel:0312345678", string(tel("03-1234+5678")))
}
