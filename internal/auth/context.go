// internal/auth/context.go
//
// Request-scoped admin identity.
//
// Usage
// -----
//     // acl.RequireAdmin attaches the verified session subject.
//     ctx = auth.WithAdmin(ctx, "admin")
//
//     // Handlers read it back, e.g. for changelog authorship.
//     who, ok := auth.Admin(ctx)   // "admin", true
//
// Notes
// -----
// • Only middleware that has verified a session should call WithAdmin.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// adminKey is unexported to avoid context-key collisions.
type adminKey struct{}

// WithAdmin returns a new context carrying the admin subject.
func WithAdmin(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminKey{}, subject)
}

// Admin extracts the admin subject from ctx.  It returns ("", false) when
// the request is not authenticated.
func Admin(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(adminKey{}).(string)
	return s, ok && s != ""
}
