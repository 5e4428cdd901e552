// internal/board/board.go
//
// Bulletin-board write path.
//
// Context
// -------
// Each site carries a public, newest-first message list stored inline on its
// row.  Anyone holding the poster URL may post or delete a message, so two
// phones on the same job site can write at the same moment.  A plain
// read-modify-write would drop one of them; instead every mutation is a
// compare-and-swap on the row's board_version:
//
//  1. Load the board and its version.
//  2. Build the new list in memory.
//  3. Store it only if the version is unchanged; otherwise reload and retry.
//
// After MaxAttempts lost races the call fails with ErrConflict.
//
// Notes
// -----
//   - A message keeps its id and timestamp across retries.
//   - Deleting an unknown id returns the current list and writes nothing.
package board

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/metrics"
	"github.com/reglanz/genba/internal/site"
)

// DefaultAuthor is shown when a poster leaves the name blank.
const DefaultAuthor = "職人さん"

// Limits, counted in characters.
const (
	MaxContent = 2000
	MaxAuthor  = 64
)

// DefaultMaxAttempts bounds the compare-and-swap loop.
const DefaultMaxAttempts = 5

// ErrConflict is returned when the board kept changing underneath a write.
// HTTP handlers map it to 409 Conflict.
var ErrConflict = errors.New("board changed concurrently, try again")

// Store is the persistence the Service needs.  *site.Repository satisfies it.
type Store interface {
	LoadBoard(ctx context.Context, siteID string) (site.Board, int64, error)
	SwapBoard(ctx context.Context, siteID string, version int64, b site.Board) (bool, error)
}

// Service posts and deletes board messages.
type Service struct {
	store       Store
	now         func() time.Time
	newID       func() string
	maxAttempts int
	log         *zap.SugaredLogger
}

// Option tweaks a Service.
type Option func(*Service)

// WithMaxAttempts overrides DefaultMaxAttempts.  n < 1 is ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.maxAttempts = n
		}
	}
}

// WithClock injects the time source for message dates.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDs injects the message id generator.
func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

// NewService returns a Service writing through store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		now:         time.Now,
		newID:       uuid.NewString,
		maxAttempts: DefaultMaxAttempts,
		log:         zap.S().Named("board"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Post prepends a message and returns the full list.
func (s *Service) Post(ctx context.Context, siteID, content, author string) (site.Board, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, site.Invalid("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxContent {
		return nil, site.Invalid("content", "too long")
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = DefaultAuthor
	}
	if utf8.RuneCountInString(author) > MaxAuthor {
		return nil, site.Invalid("author", "too long")
	}

	msg := site.Message{
		ID:      s.newID(),
		Content: content,
		Author:  author,
		Date:    s.now().UTC(),
	}

	out, err := s.mutate(ctx, siteID, func(cur site.Board) (site.Board, bool) {
		next := make(site.Board, 0, len(cur)+1)
		next = append(next, msg)
		return append(next, cur...), true
	})
	if err != nil {
		return nil, err
	}
	metrics.BoardPostTotal.Inc()
	return out, nil
}

// Delete removes the message with messageID and returns the resulting
// list.  An unknown id is not an error.
func (s *Service) Delete(ctx context.Context, siteID, messageID string) (site.Board, error) {
	removed := false
	out, err := s.mutate(ctx, siteID, func(cur site.Board) (site.Board, bool) {
		next := make(site.Board, 0, len(cur))
		for _, m := range cur {
			if m.ID != messageID {
				next = append(next, m)
			}
		}
		removed = len(next) != len(cur)
		return next, removed
	})
	if err != nil {
		return nil, err
	}
	if removed {
		metrics.BoardDeleteTotal.Inc()
	}
	return out, nil
}

// mutate runs the load → change → swap loop.  change reports whether the
// board needs writing; when it does not, the loaded board is returned as is.
func (s *Service) mutate(ctx context.Context, siteID string, change func(site.Board) (site.Board, bool)) (site.Board, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, version, err := s.store.LoadBoard(ctx, siteID)
		if err != nil {
			return nil, err
		}
		next, write := change(cur)
		if !write {
			return cur, nil
		}
		ok, err := s.store.SwapBoard(ctx, siteID, version, next)
		if err != nil {
			return nil, err
		}
		if ok {
			return next, nil
		}
		metrics.BoardRetryTotal.Inc()
		s.log.Debugw("board version moved, retrying", "site", siteID, "attempt", attempt)
	}
	s.log.Warnw("board write gave up", "site", siteID, "attempts", s.maxAttempts)
	return nil, ErrConflict
}
