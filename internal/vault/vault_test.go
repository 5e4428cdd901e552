package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVault serves one KV-v2 secret at secret/genba/admin.
func fakeVault(t *testing.T, reads *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/secret/data/genba/admin", func(w http.ResponseWriter, r *http.Request) {
		reads.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"session_secret":"s3cr3t","port":5432},
			"metadata":{"created_time":"2026-01-01T00:00:00Z","deletion_time":"","destroyed":false,"version":1}}}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["permission denied"]}`, http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	t.Setenv("VAULT_ADDR", srv.URL)
	t.Setenv("VAULT_TOKEN", "test-token")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c, err := New(ctx, nil)
	require.NoError(t, err)
	return c
}

func TestGetKV(t *testing.T) {
	var reads atomic.Int32
	c := newTestClient(t, fakeVault(t, &reads))
	ctx := context.Background()

	v, err := c.GetKV(ctx, "secret/genba/admin", "session_secret", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", v)

	v, err = c.GetKV(ctx, "secret/genba/admin", "session_secret", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", v)
	assert.EqualValues(t, 1, reads.Load(), "second read should be cached")

	_, err = c.GetKV(ctx, "secret/genba/admin", "missing", 0)
	assert.ErrorContains(t, err, "not found")

	_, err = c.GetKV(ctx, "secret/genba/admin", "port", 0)
	assert.ErrorContains(t, err, "not a string")

	_, err = c.GetKV(ctx, "", "k", 0)
	assert.Error(t, err)

	_, err = c.GetKV(ctx, "secret", "k", 0)
	assert.ErrorContains(t, err, "<mount>/<path>")
}

func TestSplitMount(t *testing.T) {
	m, rel := splitMount("secret/genba/db")
	assert.Equal(t, "secret", m)
	assert.Equal(t, "genba/db", rel)
}

func TestBackoffReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	backoff(ctx, time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}
