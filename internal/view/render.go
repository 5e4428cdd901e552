// internal/view/render.go
//
// HTML view engine for the public site page.
//
// Public helpers
// --------------
//   - New     – parse the layout and every page once at start-up.
//   - Render  – execute a page into a buffer, then stream it to w.
//
// Lookup
// ------
// Templates are embedded under templates/.  When an override directory is
// given and exists, it replaces the embedded set wholesale so operators can
// restyle the page without a rebuild.  layout.html defines "layout"; every
// other *.html defines "content" and is parsed into its own clone of the
// layout, so pages never see each other's blocks.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/reglanz/genba/internal/head"
	"github.com/reglanz/genba/internal/requestinfo"
)

//go:embed templates/*.html
var embedded embed.FS

const layoutFile = "layout.html"

// Page is the value every template receives.
type Page struct {
	Head *head.Builder
	Req  *requestinfo.RequestInfo
	Data any
}

// Engine holds one parsed set per page name ("site", "notfound").
type Engine struct {
	pages map[string]*template.Template
}

// New parses the embedded templates, or overrideDir when it exists.  loc
// controls how timestamps are printed.
func New(overrideDir string, loc *time.Location) (*Engine, error) {
	var fsys fs.FS
	if sub, err := fs.Sub(embedded, "templates"); err == nil {
		fsys = sub
	} else {
		return nil, err
	}
	if overrideDir != "" {
		if st, err := os.Stat(overrideDir); err == nil && st.IsDir() {
			fsys = os.DirFS(overrideDir)
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return parse(fsys, loc)
}

func parse(fsys fs.FS, loc *time.Location) (*Engine, error) {
	base, err := template.New(layoutFile).Funcs(funcMap(loc)).ParseFS(fsys, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("view: parse layout: %w", err)
	}
	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	e := &Engine{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", f, err)
		}
		e.pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return e, nil
}

// Render executes page name with data and writes it with status.  Nothing
// reaches w when execution fails, so the caller can still send an error.
func (e *Engine) Render(w http.ResponseWriter, r *http.Request, status int, name string, h *head.Builder, data any) error {
	t, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	if h == nil {
		h = head.New()
	}
	var buf bytes.Buffer
	page := Page{Head: h, Req: requestinfo.FromContext(r.Context()), Data: data}
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("view: execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

//
// func-map
//

var categoryLabels = map[string]string{
	"schedule": "工程表",
	"drawing":  "図面",
	"doc":      "資料",
}

func funcMap(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"stamp": func(t time.Time) string { return t.In(loc).Format("2006-01-02 15:04") },
		"day": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.In(loc).Format("2006-01-02")
		},
		"category": func(c string) string {
			if l, ok := categoryLabels[c]; ok {
				return l
			}
			return c
		},
		"tel":     tel,
		"isPhone": func(ri *requestinfo.RequestInfo) bool { return ri != nil && ri.UA.Device == "Phone" },
		"isBot":   func(ri *requestinfo.RequestInfo) bool { return ri != nil && ri.UA.IsBot },
	}
}

// tel builds a tel: URL from a display number, keeping digits and a
// leading plus.
func tel(num string) template.URL {
	var b strings.Builder
	for i, r := range strings.TrimSpace(num) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return template.URL("tel:" + b.String())
}
