package site

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Patch is an ordered list of column assignments built from an admin edit.
// Only whitelisted columns can be set.
type Patch struct {
	cols []string
	vals []any
	keys []string // JSON keys, for changelog messages
}

type field struct {
	column string
	list   bool
	max    int // rune limit for string fields, 0 = unlimited
}

// editable maps JSON keys to columns.  Board fields are absent on purpose:
// the board is only written through board.Service.
var editable = map[string]field{
	"code":            {column: "code", max: 64},
	"name":            {column: "name", max: 256},
	"status":          {column: "status", max: 64},
	"address":         {column: "address", max: 512},
	"client_name":     {column: "client_name", max: 256},
	"contractor_name": {column: "contractor_name", max: 256},
	"designer_name":   {column: "designer_name", max: 256},
	"manager_name":    {column: "manager_name", max: 256},
	"manager_phone":   {column: "manager_phone", max: 64},
	"notes":           {column: "notes"},
	"drawing_url":     {column: "drawing_urls", list: true},
	"drawing_names":   {column: "drawing_names", list: true},
	"schedule_url":    {column: "schedule_url", max: 1024},
	"quote_url":       {column: "quote_url", max: 1024},
	"photos_url":      {column: "photos_url", max: 1024},
}

// PatchFromJSON converts a decoded request body into a Patch.
//
// With replace == false (PATCH) only keys present in body change.  With
// replace == true (PUT) every editable field absent from body is cleared,
// except name and code which must then be supplied.  JSON null clears a
// nullable field; unknown keys are ignored.
func PatchFromJSON(body map[string]json.RawMessage, replace bool) (*Patch, error) {
	keys := make([]string, 0, len(editable))
	for k := range editable {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := &Patch{}
	for _, key := range keys {
		f := editable[key]
		raw, present := body[key]
		if !present {
			if !replace {
				continue
			}
			if key == "name" || key == "code" {
				return nil, Invalid(key, "required")
			}
			raw = json.RawMessage("null")
		}

		if f.list {
			var list []string
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, Invalid(key, "must be an array of strings")
			}
			p.add(key, f.column, StringList(list))
			continue
		}

		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, Invalid(key, "must be a string")
		}
		if s != nil {
			v := strings.TrimSpace(*s)
			if f.max > 0 && len([]rune(v)) > f.max {
				return nil, Invalid(key, fmt.Sprintf("longer than %d characters", f.max))
			}
			s = &v
		}
		switch key {
		case "name", "code":
			if s == nil || *s == "" {
				return nil, Invalid(key, "must not be empty")
			}
			p.add(key, f.column, *s)
		default:
			p.add(key, f.column, s)
		}
	}
	return p, nil
}

// Set assigns one column by JSON key.  Used by server-side updates such as
// the schedule upload.
func (p *Patch) Set(key string, v any) error {
	f, ok := editable[key]
	if !ok {
		return fmt.Errorf("site: %q is not editable", key)
	}
	p.add(key, f.column, v)
	return nil
}

func (p *Patch) add(key, column string, v any) {
	p.keys = append(p.keys, key)
	p.cols = append(p.cols, column)
	p.vals = append(p.vals, v)
}

// Empty reports whether the patch changes nothing.
func (p *Patch) Empty() bool { return p == nil || len(p.cols) == 0 }

// Fields lists the JSON keys the patch touches, in application order.
func (p *Patch) Fields() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}
