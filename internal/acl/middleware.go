// internal/acl/middleware.go
//
// Chi middleware that guards the admin API.

package acl

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/auth"
)

// Verifier reports the verified session subject of r.  *session.Manager
// satisfies it.
type Verifier interface {
	Subject(r *http.Request) (string, bool)
}

// RequireAdmin rejects requests without a valid admin session with 401 and
// attaches the subject to the context otherwise.
func RequireAdmin(v Verifier) func(http.Handler) http.Handler {
	if v == nil {
		panic("acl.RequireAdmin: verifier must not be nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := v.Subject(r)
			if !ok {
				zap.L().Debug("admin request without session",
					zap.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAdmin(r.Context(), sub)))
		})
	}
}
