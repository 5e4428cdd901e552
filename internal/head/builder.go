// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single render call.  Handlers push
// tags into the builder, then the base layout emits them in one place.
//
// Features
// --------
//   - SetTitle          – single <title> tag (last call wins).
//   - Description       – <meta name="description">, escaped.
//   - OpenGraph         – og:title, og:url, and og:type for link previews
//     when a QR URL is shared in a chat app.
//   - NoIndex           – site pages are reachable by anyone with the code,
//     but search engines should not list them.
//   - Meta, Link        – arbitrary pre-built tags with deduplication.
//
// Notes
// -----
//   - Every value passed to a typed helper is HTML-escaped here.  Meta and
//     Link take raw tags and trust the caller.
//   - Oxford commas, two spaces after periods.
package head

import (
	"html/template"
	"strings"
)

// Builder is not safe for concurrent use; one per render.
type Builder struct {
	title string
	metas []string
	links []string
	seen  map[string]struct{}
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Description adds <meta name="description">.
func (b *Builder) Description(s string) {
	b.Meta(`<meta name="description" content="` + template.HTMLEscapeString(s) + `">`)
}

// OpenGraph adds the minimum og:* set for a link preview.
func (b *Builder) OpenGraph(title, url string) {
	b.Meta(`<meta property="og:type" content="website">`)
	b.Meta(`<meta property="og:title" content="` + template.HTMLEscapeString(title) + `">`)
	if url != "" {
		b.Meta(`<meta property="og:url" content="` + template.HTMLEscapeString(url) + `">`)
	}
}

// NoIndex asks crawlers to skip the page and its links.
func (b *Builder) NoIndex() {
	b.Meta(`<meta name="robots" content="noindex, nofollow">`)
}

// Meta adds a raw meta tag once.
func (b *Builder) Meta(tag string) { b.add("meta:"+tag, &b.metas, tag) }

// Link adds a raw link tag once.
func (b *Builder) Link(tag string) { b.add("link:"+tag, &b.links, tag) }

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// Metas and Links are called from the layout.
func (b *Builder) Metas() template.HTML { return concat(b.metas) }
func (b *Builder) Links() template.HTML { return concat(b.links) }

// concat joins pre-escaped tags without a separator.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, ""))
}
