package site

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Record mirrors one row in the persistent `site` table.  A job site is
// reachable by two identifiers:
//
//   - ID   – generated UUID, never shown on posters.
//   - Code – short human code ("001") used in public URLs.  Not unique at
//     the data layer; lookups take the oldest match.
//
// DeletedAt non-NULL hides the site from every lookup.  Board holds the
// public bulletin board inline, newest message first, and BoardVersion is
// bumped on every board write so concurrent writers can compare-and-swap.
type Record struct {
	ID             string     `db:"id"              json:"id"`
	Code           string     `db:"code"            json:"code"`
	Name           string     `db:"name"            json:"name"`
	Status         *string    `db:"status"          json:"status"`
	Address        *string    `db:"address"         json:"address"`
	ClientName     *string    `db:"client_name"     json:"client_name"`
	ContractorName *string    `db:"contractor_name" json:"contractor_name"`
	DesignerName   *string    `db:"designer_name"   json:"designer_name"`
	ManagerName    *string    `db:"manager_name"    json:"manager_name"`
	ManagerPhone   *string    `db:"manager_phone"   json:"manager_phone"`
	Notes          *string    `db:"notes"           json:"notes"`
	DrawingURLs    StringList `db:"drawing_urls"    json:"drawing_url"`
	DrawingNames   StringList `db:"drawing_names"   json:"drawing_names"`
	ScheduleURL    *string    `db:"schedule_url"    json:"schedule_url"`
	QuoteURL       *string    `db:"quote_url"       json:"quote_url"`
	PhotosURL      *string    `db:"photos_url"      json:"photos_url"`
	Board          Board      `db:"board_data"      json:"board_data"`
	BoardVersion   int64      `db:"board_version"   json:"-"`
	DeletedAt      *time.Time `db:"deleted_at"      json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"      json:"updated_at"`
}

// Message is one bulletin-board entry.  Messages live inside Record.Board,
// never in their own table.
type Message struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// Board is the ordered message list, newest first.  It round-trips through
// a JSON column; NULL scans as an empty board.
type Board []Message

// Scan implements sql.Scanner.
func (b *Board) Scan(src any) error { return scanJSON(src, b) }

// Value implements driver.Valuer.  A nil board is stored as `[]`.
func (b Board) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Message(b))
}

// StringList is a JSON array of strings stored in one column.
type StringList []string

// Scan implements sql.Scanner.
func (s *StringList) Scan(src any) error { return scanJSON(src, s) }

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func scanJSON(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("site: cannot scan %T into JSON column", src)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Identifier is the value printed in public URLs: the code when present,
// otherwise the internal id.
func (r *Record) Identifier() string {
	if r.Code != "" {
		return r.Code
	}
	return r.ID
}
