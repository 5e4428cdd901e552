// internal/poster/poster.go
//
// A4 QR poster for a job site.
//
// Context
// -------
// Crews tape the poster to the site fence; scanning it opens the public page
// at {base}/s/{code}.  Layout, in points from the top-left corner of an A4
// portrait page (595.28 × 841.89):
//
//   - Site name at x=48, baseline 80, 24pt.
//   - QR code, 220pt square, centered on the page.
//   - Caption at x=48, 12pt, baseline 20pt above the QR.
//   - Attribution and date (YYYY-MM-DD), 10pt, right-aligned to a 48pt
//     margin at baselines H-64 and H-48.  Widths are measured, never
//     assumed.
//
// Notes
// -----
//   - Output is a pure function of (site name, code or id, base URL, date).
//     PDF creation and modification dates are pinned to midnight of the
//     stamp date and the catalog is sorted, so two calls on the same day
//     give the same bytes.
//   - A configured font that cannot be read fails New, not Generate.
//     Without a font path the core Helvetica face is used, which only
//     covers Latin-1.
//   - Rendered PDFs are kept in an LRU keyed by every input above.
package poster

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/cache"
	"github.com/reglanz/genba/internal/metrics"
	"github.com/reglanz/genba/internal/site"
)

// Fixed layout and encoding parameters.
const (
	Margin      = 48.0
	NameSize    = 24.0
	NameBase    = 80.0
	QRSize      = 220.0
	CaptionSize = 12.0
	CaptionGap  = 20.0
	FooterSize  = 10.0
	AttribBase  = 64.0 // from the bottom edge
	DateBase    = 48.0 // from the bottom edge

	QRLevel  = qrcode.Medium
	QRModule = 8 // pixels per module
)

// Default captions.  The Japanese one needs a font with CJK glyphs.
const (
	CaptionJA = "スマホで読み取って現場ページを開いてください"
	CaptionEN = "Scan with your phone to open the site page"

	DefaultAttribution = "Produced by Reglanz"
)

const fontFamily = "poster"

// Options configures a Generator.
type Options struct {
	BaseURL      string         // public origin, no trailing slash required
	FontPath     string         // TTF with the glyphs site names use; empty for Helvetica
	Caption      string         // empty picks CaptionJA or CaptionEN
	Attribution  string         // empty picks DefaultAttribution
	Location     *time.Location // date stamp zone; UTC when nil
	Now          func() time.Time
	Uncompressed bool // write plain content streams (tests, debugging)
	CacheSize    int  // rendered PDFs kept; 0 picks 64
}

// Generator renders posters.  Safe for concurrent use.
type Generator struct {
	opts  Options
	font  []byte
	cache *cache.LRU[cacheKey, []byte]
}

type cacheKey struct {
	id, code, name, base, date string
}

// New validates opts and loads the font.
func New(opts Options) (*Generator, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("poster: base URL is required")
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Attribution == "" {
		opts.Attribution = DefaultAttribution
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 64
	}

	g := &Generator{opts: opts, cache: cache.New[cacheKey, []byte](opts.CacheSize)}
	if opts.FontPath != "" {
		b, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("poster font: %w", err)
		}
		g.font = b
	}
	if g.opts.Caption == "" {
		if g.font != nil {
			g.opts.Caption = CaptionJA
		} else {
			g.opts.Caption = CaptionEN
		}
	}
	return g, nil
}

// TargetURL is the public page the QR code points at.
func TargetURL(base string, s *site.Record) string {
	return strings.TrimRight(base, "/") + "/s/" + url.PathEscape(s.Identifier())
}

// QRCode encodes target as a PNG at the fixed level and module size.
func QRCode(target string) ([]byte, error) {
	q, err := qrcode.New(target, QRLevel)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return q.PNG(-QRModule)
}

// Generate returns the poster PDF for s.
func (g *Generator) Generate(s *site.Record) ([]byte, error) {
	day := g.opts.Now().In(g.opts.Location)
	stamp := day.Format("2006-01-02")

	key := cacheKey{id: s.ID, code: s.Code, name: s.Name, base: g.opts.BaseURL, date: stamp}
	if v, ok := g.cache.Get(key); ok {
		metrics.PosterTotal.WithLabelValues("hit").Inc()
		return append([]byte(nil), v...), nil
	}

	out, err := g.render(s, day, stamp)
	if err != nil {
		return nil, err
	}
	g.cache.Add(key, out)
	metrics.PosterTotal.WithLabelValues("miss").Inc()
	zap.S().Debugw("poster rendered", "site", s.ID, "bytes", len(out), "date", stamp)
	return append([]byte(nil), out...), nil
}

func (g *Generator) render(s *site.Record, day time.Time, stamp string) ([]byte, error) {
	target := TargetURL(g.opts.BaseURL, s)
	png, err := QRCode(target)
	if err != nil {
		return nil, err
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, g.opts.Location)

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(!g.opts.Uncompressed)
	pdf.SetCreationDate(midnight)
	pdf.SetModificationDate(midnight)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(s.Name, true)
	pdf.SetCreator("genba", false)
	pdf.SetAutoPageBreak(false, 0)

	family, tr := "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if g.font != nil {
		pdf.AddUTF8FontFromBytes(fontFamily, "", g.font)
		family, tr = fontFamily, func(t string) string { return t }
	}

	pdf.AddPage()
	w, h := pdf.GetPageSize()

	// Site name.
	pdf.SetFont(family, "", NameSize)
	pdf.SetTextColor(26, 26, 26)
	pdf.Text(Margin, NameBase, tr(s.Name))

	// QR code.
	qrTop := h/2 - QRSize/2
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opt, bytes.NewReader(png))
	pdf.ImageOptions("qr", (w-QRSize)/2, qrTop, QRSize, QRSize, false, opt, 0, "")

	// Caption.
	pdf.SetFont(family, "", CaptionSize)
	pdf.SetTextColor(51, 51, 51)
	pdf.Text(Margin, qrTop-CaptionGap, tr(g.opts.Caption))

	// Signature block.
	pdf.SetFont(family, "", FooterSize)
	pdf.SetTextColor(102, 102, 102)
	attrib := tr(g.opts.Attribution)
	pdf.Text(w-Margin-pdf.GetStringWidth(attrib), h-AttribBase, attrib)
	pdf.Text(w-Margin-pdf.GetStringWidth(stamp), h-DateBase, stamp)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("poster render: %w", err)
	}
	return buf.Bytes(), nil
}
