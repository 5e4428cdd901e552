// internal/site/resolve.go
//
// Public identifier → Site.
//
// Context
// -------
// Posters and shared links carry either the short code ("001") or, for
// sites without a code, the raw UUID.  Resolve accepts both:
//
//  1. Normalize: percent-decode, then trim.  A malformed escape keeps the
//     raw input.
//  2. UUID-shaped input is looked up by id first, so an id always wins over
//     a colliding code.
//  3. Otherwise, or on an id miss, exact match on code, oldest row first.
//
// Notes
// -----
//   - Identical in-flight lookups share one query through singleflight.
//     Nothing is cached after the call returns, so edits show up at once.
//   - Soft-deleted sites never resolve.
package site

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/reglanz/genba/internal/metrics"
)

// Finder is the read side the Resolver needs.  *Repository satisfies it.
type Finder interface {
	ByID(ctx context.Context, id string) (*Record, error)
	ByCode(ctx context.Context, code string) (*Record, error)
}

// Resolver maps public identifiers to live sites.
type Resolver struct {
	find  Finder
	group singleflight.Group
}

// NewResolver returns a Resolver backed by f.
func NewResolver(f Finder) *Resolver {
	return &Resolver{find: f}
}

// Normalize percent-decodes raw and trims surrounding whitespace.  Decoding
// runs first so an encoded space at either end is trimmed too.
func Normalize(raw string) string {
	s, err := url.PathUnescape(raw)
	if err != nil {
		s = raw
	}
	return strings.TrimSpace(s)
}

// LooksLikeUUID reports whether s has the 36-character hyphenated
// 8-4-4-4-12 hex form.
func LooksLikeUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Resolve returns the site addressed by identifier, or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*Record, error) {
	key := Normalize(identifier)
	if key == "" {
		metrics.SiteResolveTotal.WithLabelValues("miss").Inc()
		return nil, ErrNotFound
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	// Callers may mutate the record; hand each one its own copy.
	rec := *v.(*Record)
	return &rec, nil
}

func (r *Resolver) resolve(ctx context.Context, key string) (*Record, error) {
	if LooksLikeUUID(key) {
		rec, err := r.find.ByID(ctx, key)
		switch {
		case err == nil:
			metrics.SiteResolveTotal.WithLabelValues("id").Inc()
			return rec, nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	rec, err := r.find.ByCode(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.SiteResolveTotal.WithLabelValues("miss").Inc()
		}
		return nil, err
	}
	metrics.SiteResolveTotal.WithLabelValues("code").Inc()
	return rec, nil
}
