// cmd/web/main.go
//
// genba – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (dotenv → YAML → GENBA_ env → Vault), validated.
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open MySQL, then run every component's idempotent DDL.
//
//  4. Build the optional collaborators: Redis throttle, object store,
//     local archive, and GeoLite2 reader.  Each is disabled, not fatal,
//     when its config block is empty.
//
//  5. Register components (admin, bulletin, public) and mount them on a
//     chi router behind recovery, security headers, HTTPS enforcement,
//     request enrichment, and the access log.
//
//  6. Expose Prometheus /metrics and a DB-backed /healthz.
//
//  7. Serve until SIGINT or SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/reglanz/genba/components/admin"
	"github.com/reglanz/genba/components/bulletin"
	"github.com/reglanz/genba/components/public"
	"github.com/reglanz/genba/internal/board"
	"github.com/reglanz/genba/internal/changelog"
	"github.com/reglanz/genba/internal/component"
	"github.com/reglanz/genba/internal/config"
	"github.com/reglanz/genba/internal/database"
	"github.com/reglanz/genba/internal/logger"
	"github.com/reglanz/genba/internal/middleware"
	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/poster"
	"github.com/reglanz/genba/internal/publicview"
	"github.com/reglanz/genba/internal/ratelimit"
	"github.com/reglanz/genba/internal/requestinfo"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/server"
	"github.com/reglanz/genba/internal/session"
	"github.com/reglanz/genba/internal/site"
	"github.com/reglanz/genba/internal/storage"
	"github.com/reglanz/genba/internal/view"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config + logger ─────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logOut, err := logger.New(cfg.Paths.Root, logger.RunningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	loc, err := time.LoadLocation(cfg.Poster.Timezone)
	if err != nil {
		logOut.Fatalw("poster timezone", "tz", cfg.Poster.Timezone, "err", err)
	}

	//
	// ── 2.  Database ────────────────────────────────────────────────────
	//
	db, err := database.Open(ctx, cfg.Database.ResolvedDSN())
	if err != nil {
		logOut.Fatalw("connect database", "err", err)
	}
	defer db.Close()

	sites := site.NewRepository(db)
	resources := resource.NewStore(db)
	photos := photo.NewStore(db)
	changes := changelog.NewStore(db)

	//
	// ── 3.  Optional collaborators ──────────────────────────────────────
	//
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
	}
	var counter ratelimit.Counter
	if rdb != nil {
		counter = ratelimit.NewRedisCounter(rdb)
	}
	boardLimiter := ratelimit.New(counter, "genba:board", cfg.Board.RateLimit, time.Minute)
	loginLimiter := ratelimit.New(counter, "genba:login", 10, time.Minute)

	objects, err := storage.NewObjectStore(storage.ObjectConfig{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		logOut.Fatalw("object store", "err", err)
	}
	archive := storage.NewArchive(afero.NewOsFs(), rooted(cfg.Paths.Root, cfg.Storage.ArchiveRoot))

	if err := requestinfo.InitGeo(rooted(cfg.Paths.Root, cfg.GeoIP.DBPath)); err != nil {
		logOut.Warnw("geoip disabled", "err", err)
	}
	defer requestinfo.CloseGeo()

	posters, err := poster.New(poster.Options{
		BaseURL:     cfg.Public.BaseURL,
		FontPath:    rooted(cfg.Paths.Root, cfg.Poster.FontPath),
		Caption:     cfg.Poster.Caption,
		Attribution: cfg.Poster.Attribution,
		Location:    loc,
	})
	if err != nil {
		logOut.Fatalw("poster", "err", err)
	}

	sessions, err := session.NewManager(cfg.Admin.SessionSecret, cfg.Admin.PasscodeHash)
	if err != nil {
		logOut.Fatalw("session", "err", err)
	}

	pages, err := view.New(filepath.Join(cfg.Paths.Root, "templates"), loc)
	if err != nil {
		logOut.Fatalw("templates", "err", err)
	}

	logOut.Infow("collaborators ready",
		"redis", rdb != nil,
		"board_rate_limit", cfg.Board.RateLimit,
		"object_store", objects != nil,
		"archive", archive != nil,
		"custom_font", cfg.Poster.FontPath != "",
	)

	//
	// ── 4.  Components ──────────────────────────────────────────────────
	//
	reg := component.NewRegistry()
	reg.Register(admin.New(admin.Deps{
		Sites:        sites,
		Resources:    resources,
		Photos:       photos,
		Changelog:    changes,
		Objects:      objects,
		Archive:      archive,
		Posters:      posters,
		Sessions:     sessions,
		LoginLimiter: loginLimiter,
	}))
	reg.Register(bulletin.New(board.NewService(sites), boardLimiter))
	reg.Register(public.New(
		site.NewResolver(sites),
		publicview.NewAssembler(resources, photos, cfg.Public.PhotoPreview),
		pages,
		cfg.Public.BaseURL,
		loc,
	))

	if err := database.Migrate(ctx, db, reg.Migrations()); err != nil {
		logOut.Fatalw("migrate", "err", err)
	}

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.Recoverer,
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		requestinfo.Enrich,
		middleware.AccessLog(logOut.Desugar()),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		pctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	reg.Mount(r)

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r)
	if err := server.Run(ctx, srv, logOut); err != nil {
		logOut.Fatalw("http server", "err", err)
	}
	logOut.Info("bye")
}

// rooted resolves a relative config path against the project root.  Empty
// stays empty so optional features remain disabled.
func rooted(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
