// internal/acl/middleware_test.go
//
// Unit-tests for RequireAdmin.
//
// Run: go test ./internal/acl -v

package acl

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reglanz/genba/internal/auth"
)

type stubVerifier struct {
	sub string
	ok  bool
}

func (s stubVerifier) Subject(*http.Request) (string, bool) { return s.sub, s.ok }

func TestRequireAdmin(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.Admin(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	RequireAdmin(stubVerifier{})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/sites", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if seen != "" {
		t.Fatalf("handler must not run without a session")
	}

	rec = httptest.NewRecorder()
	RequireAdmin(stubVerifier{sub: "admin", ok: true})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/sites", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if seen != "admin" {
		t.Fatalf("subject = %q, want admin", seen)
	}
}
