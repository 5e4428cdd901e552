// internal/site/repository.go
//
// Site-table query helpers.
//
// Context
// -------
// Every read and write of the `site` table goes through Repository:
//
//   - `ByID` / `ByCode` - single point reads used by the Resolver.
//   - `List`            - admin dashboard, with free-text search and status
//                         filter.
//   - `Create`          - inserts a site, assigning the next sequential code
//                         when the caller leaves it blank.
//   - `Update`          - applies a Patch and returns the fresh row.
//   - `SoftDelete`      - stamps deleted_at; rows are never removed.
//   - `LoadBoard` / `SwapBoard` - versioned read and compare-and-swap write
//                         of the inline bulletin board.
//
// Notes
// -----
//   - Column list matches the fields in `Record`; update both together.
//   - Soft-deleted rows are excluded at SQL level to keep callers simple.
//   - Errors are returned wrapped so handlers can log them; sql.ErrNoRows
//     is translated to ErrNotFound.
package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, code, name, status, address, client_name, contractor_name,
               designer_name, manager_name, manager_phone, notes,
               drawing_urls, drawing_names, schedule_url, quote_url, photos_url,
               board_data, board_version, deleted_at, created_at, updated_at`

// Schema is the DDL for the site table.
const Schema = `CREATE TABLE IF NOT EXISTS site (
    id              CHAR(36)      NOT NULL PRIMARY KEY,
    code            VARCHAR(64)   NOT NULL DEFAULT '',
    name            VARCHAR(256)  NOT NULL,
    status          VARCHAR(64)   NULL,
    address         VARCHAR(512)  NULL,
    client_name     VARCHAR(256)  NULL,
    contractor_name VARCHAR(256)  NULL,
    designer_name   VARCHAR(256)  NULL,
    manager_name    VARCHAR(256)  NULL,
    manager_phone   VARCHAR(64)   NULL,
    notes           TEXT          NULL,
    drawing_urls    JSON          NULL,
    drawing_names   JSON          NULL,
    schedule_url    VARCHAR(1024) NULL,
    quote_url       VARCHAR(1024) NULL,
    photos_url      VARCHAR(1024) NULL,
    board_data      JSON          NULL,
    board_version   BIGINT        NOT NULL DEFAULT 0,
    deleted_at      TIMESTAMP     NULL,
    created_at      TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_site_code (code),
    KEY idx_site_updated (updated_at)
)`

// Repository reads and writes the site table.
type Repository struct {
	db    *sqlx.DB
	now   func() time.Time
	newID func() string
}

// NewRepository wires a Repository to an open pool.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db:    db,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		newID: func() string { return uuid.NewString() },
	}
}

/*──────────────────────────── reads ───────────────────────────────────────*/

// ByID fetches one live site by its UUID.
func (r *Repository) ByID(ctx context.Context, id string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   site
        WHERE  id = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	return r.getOne(ctx, q, id)
}

// ByCode fetches the oldest live site carrying code.
func (r *Repository) ByCode(ctx context.Context, code string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   site
        WHERE  code = ?
          AND  deleted_at IS NULL
        ORDER  BY created_at, id
        LIMIT  1`
	return r.getOne(ctx, q, code)
}

func (r *Repository) getOne(ctx context.Context, q string, arg any) (*Record, error) {
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("site lookup: %w", err)
	}
	return &rec, nil
}

// Filter narrows List.  Empty fields are ignored.
type Filter struct {
	Query  string // matches name, code, address, or client name
	Status string // exact status label
}

// List returns live sites, most recently updated first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where = []string{"deleted_at IS NULL"}
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		where = append(where, "(name LIKE ? OR code LIKE ? OR address LIKE ? OR client_name LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		where = append(where, "status = ?")
		args = append(args, s)
	}

	q := `SELECT ` + columns + ` FROM site WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY updated_at DESC`

	rows := make([]Record, 0, 32)
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("site list: %w", err)
	}
	return rows, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

/*──────────────────────────── writes ──────────────────────────────────────*/

// Draft is the admin "new site" payload.
type Draft struct {
	Code           string   `json:"code"            validate:"omitempty,max=64"`
	Name           string   `json:"name"            validate:"required,max=256"`
	Status         *string  `json:"status"          validate:"omitempty,max=64"`
	Address        *string  `json:"address"         validate:"omitempty,max=512"`
	ClientName     *string  `json:"client_name"     validate:"omitempty,max=256"`
	ContractorName *string  `json:"contractor_name" validate:"omitempty,max=256"`
	DesignerName   *string  `json:"designer_name"   validate:"omitempty,max=256"`
	ManagerName    *string  `json:"manager_name"    validate:"omitempty,max=256"`
	ManagerPhone   *string  `json:"manager_phone"   validate:"omitempty,max=64"`
	Notes          *string  `json:"notes"`
	DrawingURLs    []string `json:"drawing_url"`
	DrawingNames   []string `json:"drawing_names"`
	ScheduleURL    *string  `json:"schedule_url"    validate:"omitempty,max=1024"`
	QuoteURL       *string  `json:"quote_url"       validate:"omitempty,max=1024"`
	PhotosURL      *string  `json:"photos_url"      validate:"omitempty,max=1024"`
}

// Create inserts a new site.  A blank code is replaced by the next
// zero-padded sequential number; the code scan and insert share one
// transaction holding row locks so two creates cannot pick the same number.
func (r *Repository) Create(ctx context.Context, d Draft) (*Record, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, Invalid("name", "required")
	}

	now := r.now()
	rec := &Record{
		ID:             r.newID(),
		Code:           strings.TrimSpace(d.Code),
		Name:           name,
		Status:         d.Status,
		Address:        d.Address,
		ClientName:     d.ClientName,
		ContractorName: d.ContractorName,
		DesignerName:   d.DesignerName,
		ManagerName:    d.ManagerName,
		ManagerPhone:   d.ManagerPhone,
		Notes:          d.Notes,
		DrawingURLs:    StringList(d.DrawingURLs),
		DrawingNames:   StringList(d.DrawingNames),
		ScheduleURL:    d.ScheduleURL,
		QuoteURL:       d.QuoteURL,
		PhotosURL:      d.PhotosURL,
		Board:          Board{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("site create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if rec.Code == "" {
		var codes []string
		if err := tx.SelectContext(ctx, &codes, `SELECT code FROM site FOR UPDATE`); err != nil {
			return nil, fmt.Errorf("site create: scan codes: %w", err)
		}
		rec.Code = NextCode(codes)
	}

	const q = `
        INSERT INTO site (id, code, name, status, address, client_name,
                          contractor_name, designer_name, manager_name,
                          manager_phone, notes, drawing_urls, drawing_names,
                          schedule_url, quote_url, photos_url, board_data,
                          board_version, created_at, updated_at)
        VALUES (:id, :code, :name, :status, :address, :client_name,
                :contractor_name, :designer_name, :manager_name,
                :manager_phone, :notes, :drawing_urls, :drawing_names,
                :schedule_url, :quote_url, :photos_url, :board_data,
                0, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, q, rec); err != nil {
		return nil, fmt.Errorf("site create: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("site create: %w", err)
	}
	return rec, nil
}

// Update applies p to the live site id and returns the fresh row.  Last
// writer wins for admin edits.
func (r *Repository) Update(ctx context.Context, id string, p *Patch) (*Record, error) {
	if p.Empty() {
		return r.ByID(ctx, id)
	}

	sets := make([]string, 0, len(p.cols)+1)
	args := make([]any, 0, len(p.cols)+2)
	for i, c := range p.cols {
		sets = append(sets, c+" = ?")
		args = append(args, p.vals[i])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now(), id)

	q := `UPDATE site SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("site update: %w", err)
	}
	return r.ByID(ctx, id)
}

// SoftDelete hides the site from every lookup.  Resources, photos, and
// changelog rows are kept so the site can be restored by clearing
// deleted_at by hand.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE site SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("site delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("site delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

/*──────────────────────────── board ───────────────────────────────────────*/

// LoadBoard returns the stored board and its version.
func (r *Repository) LoadBoard(ctx context.Context, id string) (Board, int64, error) {
	const q = `
        SELECT board_data, board_version
        FROM   site
        WHERE  id = ?
          AND  deleted_at IS NULL`
	var row struct {
		Board   Board `db:"board_data"`
		Version int64 `db:"board_version"`
	}
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("board load: %w", err)
	}
	if row.Board == nil {
		row.Board = Board{}
	}
	return row.Board, row.Version, nil
}

// SwapBoard stores b only when the row is still at version.  It reports
// false when another writer got there first.
func (r *Repository) SwapBoard(ctx context.Context, id string, version int64, b Board) (bool, error) {
	const q = `
        UPDATE site
        SET    board_data = ?, board_version = board_version + 1, updated_at = ?
        WHERE  id = ?
          AND  board_version = ?
          AND  deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, b, r.now(), id, version)
	if err != nil {
		return false, fmt.Errorf("board swap: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("board swap: %w", err)
	}
	return n == 1, nil
}
