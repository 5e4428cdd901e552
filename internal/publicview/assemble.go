// internal/publicview/assemble.go
//
// Site → public page payload.
//
// Context
// -------
// The public page at /s/{code} and its JSON twin render one View.  The site
// row supplies the display attributes, the bulletin board, and the inline
// drawing arrays; resources and the photo preview come from their own
// tables and are fetched concurrently.
//
// Notes
// -----
//   - Read-only.  Messages are passed through exactly as stored.
//   - Either sub-fetch failing fails the whole view; there is no partial
//     page.
//   - Internal fields (quote URL, admin notes, board version) never leave
//     this package.
package publicview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/site"
)

// DefaultPreview is the photo preview size when none is configured.
const DefaultPreview = 6

// Resources lists a site's documents.  *resource.Store satisfies it.
type Resources interface {
	ListBySite(ctx context.Context, siteID string) ([]resource.Resource, error)
}

// Photos lists a site's photos.  *photo.Store satisfies it.
type Photos interface {
	Recent(ctx context.Context, siteID string, limit int) ([]photo.Photo, int, error)
	List(ctx context.Context, siteID string, f photo.Filter) ([]photo.Photo, error)
}

// Drawing is one inline drawing link with its display name.
type Drawing struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Info is the publicly visible part of a site.
type Info struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Status         *string   `json:"status"`
	Address        *string   `json:"address"`
	ClientName     *string   `json:"client_name"`
	ContractorName *string   `json:"contractor_name"`
	DesignerName   *string   `json:"designer_name"`
	ManagerName    *string   `json:"manager_name"`
	ManagerPhone   *string   `json:"manager_phone"`
	ScheduleURL    *string   `json:"schedule_url"`
	PhotosURL      *string   `json:"photos_url"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// View is the public page payload.
type View struct {
	Site       Info                           `json:"site"`
	Messages   site.Board                     `json:"messages"`
	Drawings   []Drawing                      `json:"drawings"`
	Resources  map[string][]resource.Resource `json:"resources"`
	Photos     []photo.Photo                  `json:"photos"`
	PhotoCount int                            `json:"photo_count"`
}

// Gallery is the full photo listing for one site.
type Gallery struct {
	Site   Info          `json:"site"`
	Photos []photo.Photo `json:"photos"`
}

// Assembler builds public payloads.
type Assembler struct {
	resources Resources
	photos    Photos
	preview   int
}

// NewAssembler returns an Assembler showing preview photos; preview < 1
// falls back to DefaultPreview.
func NewAssembler(r Resources, p Photos, preview int) *Assembler {
	if preview < 1 {
		preview = DefaultPreview
	}
	return &Assembler{resources: r, photos: p, preview: preview}
}

// Assemble gathers everything the public page shows for s.
func (a *Assembler) Assemble(ctx context.Context, s *site.Record) (*View, error) {
	v := &View{
		Site:     infoOf(s),
		Messages: s.Board,
		Drawings: ZipDrawings(s.DrawingURLs, s.DrawingNames),
	}
	if v.Messages == nil {
		v.Messages = site.Board{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := a.resources.ListBySite(gctx, s.ID)
		if err != nil {
			return fmt.Errorf("assemble resources: %w", err)
		}
		v.Resources = resource.Group(rs)
		return nil
	})
	g.Go(func() error {
		ps, n, err := a.photos.Recent(gctx, s.ID, a.preview)
		if err != nil {
			return fmt.Errorf("assemble photos: %w", err)
		}
		v.Photos, v.PhotoCount = ps, n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if v.Photos == nil {
		v.Photos = []photo.Photo{}
	}
	return v, nil
}

// Gallery returns every photo of s matching f.
func (a *Assembler) Gallery(ctx context.Context, s *site.Record, f photo.Filter) (*Gallery, error) {
	ps, err := a.photos.List(ctx, s.ID, f)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		ps = []photo.Photo{}
	}
	return &Gallery{Site: infoOf(s), Photos: ps}, nil
}

// ZipDrawings pairs each URL with its index-aligned name.  Missing or blank
// names become "Drawing N" (1-based).  Every URL is kept; names beyond the
// last URL are dropped.
func ZipDrawings(urls, names []string) []Drawing {
	out := make([]Drawing, 0, len(urls))
	for i, u := range urls {
		name := ""
		if i < len(names) {
			name = strings.TrimSpace(names[i])
		}
		if name == "" {
			name = fmt.Sprintf("Drawing %d", i+1)
		}
		out = append(out, Drawing{Name: name, URL: u})
	}
	return out
}

func infoOf(s *site.Record) Info {
	return Info{
		ID:             s.ID,
		Code:           s.Code,
		Name:           s.Name,
		Status:         s.Status,
		Address:        s.Address,
		ClientName:     s.ClientName,
		ContractorName: s.ContractorName,
		DesignerName:   s.DesignerName,
		ManagerName:    s.ManagerName,
		ManagerPhone:   s.ManagerPhone,
		ScheduleURL:    s.ScheduleURL,
		PhotosURL:      s.PhotosURL,
		UpdatedAt:      s.UpdatedAt,
	}
}
