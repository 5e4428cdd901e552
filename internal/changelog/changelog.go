// Package changelog records admin edits per site.  Rows are append-only and
// listed newest first, capped at Limit.
package changelog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Limit caps List.
const Limit = 50

// Entry mirrors one row in the `changelog` table.
type Entry struct {
	ID        string    `db:"id"         json:"id"`
	SiteID    string    `db:"site_id"    json:"site_id"`
	Message   string    `db:"message"    json:"message"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Schema is the DDL for the changelog table.
const Schema = `CREATE TABLE IF NOT EXISTS changelog (
    id          CHAR(36)     NOT NULL PRIMARY KEY,
    site_id     CHAR(36)     NOT NULL,
    message     TEXT         NOT NULL,
    created_by  VARCHAR(128) NULL,
    created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_changelog_site (site_id, created_at)
)`

// Store reads and writes the changelog table.
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

// List returns the latest entries for siteID.
func (s *Store) List(ctx context.Context, siteID string) ([]Entry, error) {
	const q = `
        SELECT id, site_id, message, created_by, created_at
        FROM   changelog
        WHERE  site_id = ?
        ORDER  BY created_at DESC, id
        LIMIT  ?`
	rows := make([]Entry, 0, 16)
	if err := s.db.SelectContext(ctx, &rows, q, siteID, Limit); err != nil {
		return nil, fmt.Errorf("changelog list: %w", err)
	}
	return rows, nil
}

// Record appends one entry.  An empty by is stored as NULL.
func (s *Store) Record(ctx context.Context, siteID, message, by string) error {
	e := Entry{
		ID:        s.newID(),
		SiteID:    siteID,
		Message:   message,
		CreatedAt: s.now(),
	}
	if by = strings.TrimSpace(by); by != "" {
		e.CreatedBy = &by
	}
	const q = `
        INSERT INTO changelog (id, site_id, message, created_by, created_at)
        VALUES (:id, :site_id, :message, :created_by, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, q, e); err != nil {
		return fmt.Errorf("changelog record: %w", err)
	}
	return nil
}

// Describe renders the message written for an admin update touching fields.
func Describe(fields []string) string {
	if len(fields) == 0 {
		return "updated (no changes)"
	}
	return "updated: " + strings.Join(fields, ", ")
}
