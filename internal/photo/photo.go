// internal/photo/photo.go
//
// Site progress photos.
//
// Context
// -------
// Photos are links to images hosted elsewhere, tagged with the construction
// phase, the location on site, and the time they were taken.  The public
// page shows a short preview; the gallery endpoint filters the full set.
package photo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/reglanz/genba/internal/site"
)

// ErrNotFound is returned when a photo id matches no row.
var ErrNotFound = errors.New("photo not found")

// Photo mirrors one row in the `photo` table.
type Photo struct {
	ID        string     `db:"id"         json:"id"`
	SiteID    string     `db:"site_id"    json:"site_id"`
	ImageURL  string     `db:"image_url"  json:"image_url"`
	TakenAt   *time.Time `db:"taken_at"   json:"taken_at,omitempty"`
	Phase     *string    `db:"phase"      json:"phase,omitempty"`
	Location  *string    `db:"location"   json:"location,omitempty"`
	Comment   *string    `db:"comment"    json:"comment,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Input is the admin "add photo" payload.
type Input struct {
	ImageURL string     `json:"image_url" validate:"required,max=1024"`
	TakenAt  *time.Time `json:"taken_at"`
	Phase    *string    `json:"phase"     validate:"omitempty,max=64"`
	Location *string    `json:"location"  validate:"omitempty,max=128"`
	Comment  *string    `json:"comment"   validate:"omitempty,max=1024"`
}

// Filter narrows List.  Date is YYYY-MM-DD and matches taken_at within that
// calendar day in Loc (UTC when nil).
type Filter struct {
	Phase    string
	Location string
	Date     string
	Loc      *time.Location
}

// Schema is the DDL for the photo table.
const Schema = `CREATE TABLE IF NOT EXISTS photo (
    id          CHAR(36)      NOT NULL PRIMARY KEY,
    site_id     CHAR(36)      NOT NULL,
    image_url   VARCHAR(1024) NOT NULL,
    taken_at    TIMESTAMP     NULL,
    phase       VARCHAR(64)   NULL,
    location    VARCHAR(128)  NULL,
    comment     TEXT          NULL,
    created_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_photo_site (site_id, created_at)
)`

const columns = `id, site_id, image_url, taken_at, phase, location, comment, created_at`

// Store reads and writes the photo table.
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

// List returns the photos of siteID matching f, newest first.
func (s *Store) List(ctx context.Context, siteID string, f Filter) ([]Photo, error) {
	where := []string{"site_id = ?"}
	args := []any{siteID}

	if v := strings.TrimSpace(f.Phase); v != "" {
		where, args = append(where, "phase = ?"), append(args, v)
	}
	if v := strings.TrimSpace(f.Location); v != "" {
		where, args = append(where, "location = ?"), append(args, v)
	}
	if v := strings.TrimSpace(f.Date); v != "" {
		loc := f.Loc
		if loc == nil {
			loc = time.UTC
		}
		day, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return nil, site.Invalid("date", "must be YYYY-MM-DD")
		}
		where = append(where, "taken_at >= ?", "taken_at < ?")
		args = append(args, day.UTC(), day.AddDate(0, 0, 1).UTC())
	}

	q := `SELECT ` + columns + ` FROM photo WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id`
	rows := make([]Photo, 0, 16)
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("photo list: %w", err)
	}
	return rows, nil
}

// Recent returns at most limit photos of siteID, newest first, plus the
// total number of photos the site has.
func (s *Store) Recent(ctx context.Context, siteID string, limit int) ([]Photo, int, error) {
	const q = `
        SELECT ` + columns + `
        FROM   photo
        WHERE  site_id = ?
        ORDER  BY created_at DESC, id
        LIMIT  ?`
	rows := make([]Photo, 0, limit)
	if err := s.db.SelectContext(ctx, &rows, q, siteID, limit); err != nil {
		return nil, 0, fmt.Errorf("photo recent: %w", err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM photo WHERE site_id = ?`, siteID); err != nil {
		return nil, 0, fmt.Errorf("photo count: %w", err)
	}
	return rows, total, nil
}

// Create inserts a photo for siteID.
func (s *Store) Create(ctx context.Context, siteID string, in Input) (*Photo, error) {
	img := strings.TrimSpace(in.ImageURL)
	if img == "" {
		return nil, site.Invalid("image_url", "required")
	}
	p := &Photo{
		ID:        s.newID(),
		SiteID:    siteID,
		ImageURL:  img,
		TakenAt:   in.TakenAt,
		Phase:     blankToNil(in.Phase),
		Location:  blankToNil(in.Location),
		Comment:   blankToNil(in.Comment),
		CreatedAt: s.now(),
	}
	if p.TakenAt != nil {
		t := p.TakenAt.UTC()
		p.TakenAt = &t
	}

	const q = `
        INSERT INTO photo (id, site_id, image_url, taken_at, phase, location, comment, created_at)
        VALUES (:id, :site_id, :image_url, :taken_at, :phase, :location, :comment, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, q, p); err != nil {
		return nil, fmt.Errorf("photo create: %w", err)
	}
	return p, nil
}

// Delete removes photo id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM photo WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("photo delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func blankToNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
