// internal/middleware/middleware_test.go
//
// Run: go test ./internal/middleware -v

package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reglanz/genba/internal/requestinfo"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestForceHTTPS(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		host    string
		path    string
		proto   string
		tls     bool
		want    int
	}{
		{"disabled", false, "genba.example", "/s/001", "", false, http.StatusNoContent},
		{"plain http", true, "genba.example", "/s/001?x=1", "", false, http.StatusPermanentRedirect},
		{"proxy https", true, "genba.example", "/s/001", "https", false, http.StatusNoContent},
		{"direct tls", true, "genba.example", "/s/001", "", true, http.StatusNoContent},
		{"localhost", true, "localhost:8080", "/s/001", "", false, http.StatusNoContent},
		{"loopback ip", true, "127.0.0.1:8080", "/s/001", "", false, http.StatusNoContent},
		{"health probe", true, "10.0.0.5:8080", "/healthz", "", false, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://"+tc.host+tc.path, nil)
			r.Host = tc.host
			if tc.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			if tc.tls {
				r.TLS = &tls.ConnectionState{}
			}
			rec := httptest.NewRecorder()
			ForceHTTPS(tc.enabled)(ok).ServeHTTP(rec, r)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusPermanentRedirect {
				assert.Equal(t, "https://genba.example/s/001?x=1", rec.Header().Get("Location"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	h := rec.Header()
	assert.Contains(t, h.Get("Content-Security-Policy"), "img-src 'self' data: https:")
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, h.Get("Strict-Transport-Security"))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(requestinfo.Enrich, AccessLog(zap.New(core)))
	r.Get("/s/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})

	req := httptest.NewRequest(http.MethodGet, "/s/001", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/s/{code}", fields["route"])
	assert.Equal(t, "/s/001", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 2, fields["bytes"])
	assert.Equal(t, "203.0.113.9", fields["ip"])
	assert.Equal(t, "Phone", fields["device"])
	assert.Equal(t, false, fields["bot"])
	assert.Equal(t, "ja-jp", fields["lang"])
	assert.NotContains(t, fields, "country", "no GeoIP database loaded")
}
