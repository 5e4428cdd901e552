// internal/middleware/accesslog.go
//
// One structured log line and one latency observation per request.
//
// Fields: method, path, route pattern, status, bytes, duration, client IP,
// browser, device, and bot flag, plus language and country when known.  The UA fields come from requestinfo, so
// Enrich must run first.  The route label uses the chi pattern
// ("/api/admin/sites/{id}") to keep Prometheus cardinality bounded.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/metrics"
	"github.com/reglanz/genba/internal/requestinfo"
)

// AccessLog writes through log at Info level.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			dur := time.Since(start)
			route := routePattern(r)
			metrics.HTTPDuration.
				WithLabelValues(route, strconv.Itoa(status/100)+"xx").
				Observe(dur.Seconds())

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", dur),
			}
			if ri := requestinfo.FromContext(r.Context()); ri != nil {
				fields = append(fields,
					zap.String("ip", requestinfo.ClientKey(r.Context())),
					zap.String("browser", ri.UA.Browser),
					zap.String("device", ri.UA.Device),
					zap.Bool("bot", ri.UA.IsBot),
				)
				if ri.UA.PrimaryLang != "" {
					fields = append(fields, zap.String("lang", ri.UA.PrimaryLang))
				}
				if ri.Geo.CountryISO != "" {
					fields = append(fields, zap.String("country", ri.Geo.CountryISO))
				}
			}
			log.Info("http request", fields...)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
