package bulletin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglanz/genba/internal/board"
	"github.com/reglanz/genba/internal/ratelimit"
	"github.com/reglanz/genba/internal/requestinfo"
	"github.com/reglanz/genba/internal/site"
)

// memStore is a single-site board store.
type memStore struct {
	mu      sync.Mutex
	id      string
	msgs    site.Board
	version int64
	swaps   int
}

func (m *memStore) LoadBoard(_ context.Context, id string) (site.Board, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.id {
		return nil, 0, site.ErrNotFound
	}
	return append(site.Board(nil), m.msgs...), m.version, nil
}

func (m *memStore) SwapBoard(_ context.Context, id string, v int64, b site.Board) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v != m.version {
		return false, nil
	}
	m.msgs, m.version = b, m.version+1
	m.swaps++
	return true, nil
}

type memCounter struct {
	mu  sync.Mutex
	n   map[string]int64
	err error
}

func (c *memCounter) Incr(_ context.Context, k string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.n[k]++
	return c.n[k], nil
}

func (c *memCounter) Expire(context.Context, string, time.Duration) error { return nil }

func newServer(t *testing.T, l *ratelimit.Limiter) (http.Handler, *memStore) {
	t.Helper()
	st := &memStore{id: "site-1"}
	n := 0
	svc := board.NewService(st,
		board.WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
		board.WithIDs(func() string { n++; return "m" + string(rune('0'+n)) }),
	)
	c := New(svc, l)
	r := chi.NewRouter()
	r.Use(requestinfo.Enrich)
	r.Mount(c.Prefix(), c.Routes())
	return r, st
}

func call(h http.Handler, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/board", strings.NewReader(body))
	req.RemoteAddr = "198.51.100.7:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) []site.Message {
	t.Helper()
	var out struct {
		Data []site.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Data
}

func TestPostAndDelete(t *testing.T) {
	h, st := newServer(t, nil)

	rec := call(h, http.MethodPost, `{"siteId":"site-1","content":"  first  ","author":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(h, http.MethodPost, `{"siteId":"site-1","content":"second","author":"Sato"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	msgs := decode(t, rec)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[0].Content)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, board.DefaultAuthor, msgs[1].Author)

	rec = call(h, http.MethodDelete, `{"siteId":"site-1","messageId":"`+msgs[1].ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec), 1)

	swaps := st.swaps
	rec = call(h, http.MethodDelete, `{"siteId":"site-1","messageId":"nope"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec), 1)
	assert.Equal(t, swaps, st.swaps, "unknown message id must not write")
}

func TestPostErrors(t *testing.T) {
	h, _ := newServer(t, nil)

	cases := []struct {
		body string
		want int
	}{
		{`{"siteId":"site-1","content":"   "}`, http.StatusBadRequest},
		{`{"content":"hi"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		{`{"siteId":"ghost","content":"hi"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := call(h, http.MethodPost, tc.body)
		assert.Equal(t, tc.want, rec.Code, tc.body)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestThrottle(t *testing.T) {
	l := ratelimit.New(&memCounter{n: map[string]int64{}}, "genba:board", 2, time.Minute)
	h, st := newServer(t, l)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, call(h, http.MethodPost, `{"siteId":"site-1","content":"x"}`).Code)
	}
	rec := call(h, http.MethodPost, `{"siteId":"site-1","content":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, st.swaps)

	// Deletes are not throttled.
	assert.Equal(t, http.StatusOK, call(h, http.MethodDelete, `{"siteId":"site-1","messageId":"m1"}`).Code)
}

func TestThrottleFailsOpen(t *testing.T) {
	l := ratelimit.New(&memCounter{n: map[string]int64{}, err: errors.New("redis down")}, "genba:board", 1, time.Minute)
	h, _ := newServer(t, l)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, call(h, http.MethodPost, `{"siteId":"site-1","content":"x"}`).Code)
	}
}
