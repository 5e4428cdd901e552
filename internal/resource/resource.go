// internal/resource/resource.go
//
// Categorized document links attached to a site.
//
// Context
// -------
// Schedules, drawings, and miscellaneous documents live in the `resource`
// table keyed by site_id.  The public page groups them by category; the
// admin API edits them one row at a time.
//
// Notes
// -----
//   - Category is one of schedule, drawing, or doc.  Anything else is a
//     validation error.
//   - Rows are listed newest-updated first.
package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/reglanz/genba/internal/site"
)

// Categories accepted by the resource table.
const (
	Schedule = "schedule"
	Drawing  = "drawing"
	Doc      = "doc"
)

// Categories lists every category in display order.
var Categories = []string{Schedule, Drawing, Doc}

// ErrNotFound is returned when a resource id matches no row.
var ErrNotFound = errors.New("resource not found")

// Resource mirrors one row in the `resource` table.
type Resource struct {
	ID        string    `db:"id"         json:"id"`
	SiteID    string    `db:"site_id"    json:"site_id"`
	Category  string    `db:"category"   json:"category"`
	Title     string    `db:"title"      json:"title"`
	URL       string    `db:"url"        json:"url"`
	Version   *string   `db:"version"    json:"version,omitempty"`
	Tags      *string   `db:"tags"       json:"tags,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Input is the create/update payload.  Nil pointers leave a field untouched
// on update.
type Input struct {
	Category *string `json:"category"`
	Title    *string `json:"title"    validate:"omitempty,max=256"`
	URL      *string `json:"url"      validate:"omitempty,max=1024"`
	Version  *string `json:"version"  validate:"omitempty,max=64"`
	Tags     *string `json:"tags"     validate:"omitempty,max=256"`
}

// Schema is the DDL for the resource table.
const Schema = `CREATE TABLE IF NOT EXISTS resource (
    id          CHAR(36)      NOT NULL PRIMARY KEY,
    site_id     CHAR(36)      NOT NULL,
    category    VARCHAR(16)   NOT NULL,
    title       VARCHAR(256)  NOT NULL,
    url         VARCHAR(1024) NOT NULL,
    version     VARCHAR(64)   NULL,
    tags        VARCHAR(256)  NULL,
    updated_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_resource_site (site_id, updated_at)
)`

const columns = `id, site_id, category, title, url, version, tags, updated_at`

// Store reads and writes the resource table.
type Store struct {
	db    *sqlx.DB
	now   func() time.Time
	newID func() string
}

// NewStore wires a Store to an open pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:    db,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		newID: uuid.NewString,
	}
}

// ListBySite returns every resource of siteID, newest first.
func (s *Store) ListBySite(ctx context.Context, siteID string) ([]Resource, error) {
	const q = `
        SELECT ` + columns + `
        FROM   resource
        WHERE  site_id = ?
        ORDER  BY updated_at DESC, id`
	rows := make([]Resource, 0, 8)
	if err := s.db.SelectContext(ctx, &rows, q, siteID); err != nil {
		return nil, fmt.Errorf("resource list: %w", err)
	}
	return rows, nil
}

// Create inserts a resource for siteID.  Category, title, and url are
// required.
func (s *Store) Create(ctx context.Context, siteID string, in Input) (*Resource, error) {
	r := &Resource{
		ID:        s.newID(),
		SiteID:    siteID,
		Version:   trimmed(in.Version),
		Tags:      trimmed(in.Tags),
		UpdatedAt: s.now(),
	}
	var err error
	if r.Category, err = category(in.Category); err != nil {
		return nil, err
	}
	if r.Title, err = required("title", in.Title); err != nil {
		return nil, err
	}
	if r.URL, err = required("url", in.URL); err != nil {
		return nil, err
	}

	const q = `
        INSERT INTO resource (id, site_id, category, title, url, version, tags, updated_at)
        VALUES (:id, :site_id, :category, :title, :url, :version, :tags, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, q, r); err != nil {
		return nil, fmt.Errorf("resource create: %w", err)
	}
	return r, nil
}

// Update changes the supplied fields of resource id and returns the row.
func (s *Store) Update(ctx context.Context, id string, in Input) (*Resource, error) {
	var (
		sets []string
		args []any
	)
	if in.Category != nil {
		c, err := category(in.Category)
		if err != nil {
			return nil, err
		}
		sets, args = append(sets, "category = ?"), append(args, c)
	}
	if in.Title != nil {
		v, err := required("title", in.Title)
		if err != nil {
			return nil, err
		}
		sets, args = append(sets, "title = ?"), append(args, v)
	}
	if in.URL != nil {
		v, err := required("url", in.URL)
		if err != nil {
			return nil, err
		}
		sets, args = append(sets, "url = ?"), append(args, v)
	}
	if in.Version != nil {
		sets, args = append(sets, "version = ?"), append(args, trimmed(in.Version))
	}
	if in.Tags != nil {
		sets, args = append(sets, "tags = ?"), append(args, trimmed(in.Tags))
	}
	sets, args = append(sets, "updated_at = ?"), append(args, s.now(), id)

	q := `UPDATE resource SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("resource update: %w", err)
	}
	return s.byID(ctx, id)
}

// Delete removes resource id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resource WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("resource delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) byID(ctx context.Context, id string) (*Resource, error) {
	const q = `SELECT ` + columns + ` FROM resource WHERE id = ?`
	var r Resource
	if err := s.db.GetContext(ctx, &r, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resource lookup: %w", err)
	}
	return &r, nil
}

// Group buckets rs by category, keeping input order within each bucket.
// Every known category is present in the result, possibly empty.
func Group(rs []Resource) map[string][]Resource {
	out := make(map[string][]Resource, len(Categories))
	for _, c := range Categories {
		out[c] = []Resource{}
	}
	for _, r := range rs {
		if _, ok := out[r.Category]; ok {
			out[r.Category] = append(out[r.Category], r)
		}
	}
	return out
}

func category(p *string) (string, error) {
	if p == nil {
		return "", site.Invalid("category", "required")
	}
	c := strings.ToLower(strings.TrimSpace(*p))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", site.Invalid("category", "must be schedule, drawing, or doc")
}

func required(field string, p *string) (string, error) {
	if p == nil || strings.TrimSpace(*p) == "" {
		return "", site.Invalid(field, "required")
	}
	return strings.TrimSpace(*p), nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
