package site

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeBody(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestPatchFromJSON_PartialOnlyTouchesPresentKeys(t *testing.T) {
	p, err := PatchFromJSON(decodeBody(t, `{"status":" 施工中 ","notes":null,"board_data":[],"unknown":1}`), false)
	if err != nil {
		t.Fatalf("PatchFromJSON: %v", err)
	}
	if got := p.Fields(); len(got) != 2 || got[0] != "notes" || got[1] != "status" {
		t.Fatalf("fields = %v, want [notes status]", got)
	}
	if v := p.vals[0].(*string); v != nil {
		t.Fatalf("notes should be cleared, got %q", *v)
	}
	if v := p.vals[1].(*string); v == nil || *v != "施工中" {
		t.Fatalf("status = %v, want trimmed value", v)
	}
}

func TestPatchFromJSON_ReplaceClearsAbsentFields(t *testing.T) {
	p, err := PatchFromJSON(decodeBody(t, `{"name":"Sato office","code":"002","drawing_url":["a","b"]}`), true)
	if err != nil {
		t.Fatalf("PatchFromJSON: %v", err)
	}
	if len(p.cols) != len(editable) {
		t.Fatalf("PUT touched %d columns, want %d", len(p.cols), len(editable))
	}
	for i, c := range p.cols {
		switch c {
		case "drawing_urls":
			if l := p.vals[i].(StringList); len(l) != 2 {
				t.Errorf("drawing_urls = %v", l)
			}
		case "drawing_names":
			if l := p.vals[i].(StringList); l != nil {
				t.Errorf("drawing_names = %v, want nil (stored as [])", l)
			}
		case "address":
			if v := p.vals[i].(*string); v != nil {
				t.Errorf("address = %q, want NULL", *v)
			}
		}
	}
}

func TestPatchFromJSON_Rejects(t *testing.T) {
	cases := []struct {
		body    string
		replace bool
	}{
		{`{"name":"  "}`, false},
		{`{"name":null}`, false},
		{`{"code":""}`, false},
		{`{"code":"001"}`, true}, // PUT without name
		{`{"status":42}`, false},
		{`{"drawing_url":"a"}`, false},
		{`{"manager_phone":"` + strings.Repeat("9", 65) + `"}`, false},
	}
	for _, tc := range cases {
		if _, err := PatchFromJSON(decodeBody(t, tc.body), tc.replace); !IsValidation(err) {
			t.Errorf("PatchFromJSON(%s, %v) err = %v, want ValidationError", tc.body, tc.replace, err)
		}
	}
}

func TestPatchSet_RejectsNonEditable(t *testing.T) {
	p := &Patch{}
	if err := p.Set("board_data", "[]"); err == nil {
		t.Fatalf("board_data must not be settable through Patch")
	}
	if !p.Empty() {
		t.Fatalf("rejected Set must not change the patch")
	}
}
