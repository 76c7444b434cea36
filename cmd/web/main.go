// cmd/web/main.go
//
// Job board web client – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Bootstrap console logger, then load config (dotenv → YAML → env →
//     Vault).
//
//  2. Start daily rotating logger (tees to console when running in a TTY)
//     and the OpenTelemetry exporter.
//
//  3. Open the session backend named by config (memory, mysql, or redis)
//     and start the purge loop for mysql.
//
//  4. Build the API transport (pooled client + circuit breaker) and the
//     per-browser controller registry on top of it.
//
//  5. Assemble the router:
//
//     • access log, panic recovery, tracing, security headers
//     • HTTPS redirect (skips localhost)
//     • request info (UA + GeoIP), skipped for assets and metrics
//     • guard attach – resolves the browser's controller
//     • components    – auth, jobs, account, admin
//     • /static, /metrics, and /debug when enabled
//
//  6. Serve until SIGINT/SIGTERM, then drain and close everything.
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
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/acl"
	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/component"
	"github.com/yanizio/jobboard/internal/config"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/logger"
	"github.com/yanizio/jobboard/internal/middleware"
	"github.com/yanizio/jobboard/internal/module"
	"github.com/yanizio/jobboard/internal/requestinfo"
	"github.com/yanizio/jobboard/internal/server"
	"github.com/yanizio/jobboard/internal/session"
	"github.com/yanizio/jobboard/internal/tracing"
	"github.com/yanizio/jobboard/internal/view"

	_ "github.com/yanizio/jobboard/components/account"
	_ "github.com/yanizio/jobboard/components/admin"
	_ "github.com/yanizio/jobboard/components/auth"
	_ "github.com/yanizio/jobboard/components/jobs"
	_ "github.com/yanizio/jobboard/modules/debug" // diagnostics module
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("jobboard: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config ──────────────────────────────────────────────────────
	//
	logger.Bootstrap()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	//
	// ── 2.  Logging and tracing ─────────────────────────────────────────
	//
	sugar, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		return err
	}
	defer func() { _ = sugar.Sync() }()
	zlog := sugar.Desugar()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if cfg.Geo.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
			zlog.Warn("geoip disabled", zap.String("path", cfg.Geo.DBPath), zap.Error(err))
		}
		defer requestinfo.CloseGeo()
	}

	//
	// ── 3.  Session backend ─────────────────────────────────────────────
	//
	backend, err := session.Open(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer backend.Close()

	purgeCtx, stopPurge := context.WithCancel(ctx)
	purged := session.StartPurger(purgeCtx, backend, cfg.Session.MaxAge, cfg.Session.PurgeInterval, zlog)
	defer func() {
		stopPurge()
		<-purged
	}()

	//
	// ── 4.  API transport and controller registry ───────────────────────
	//
	tr, err := api.NewTransport(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Breaker: api.BreakerConfig{
			MaxRequests:  cfg.API.Breaker.MaxRequests,
			Interval:     cfg.API.Breaker.Interval,
			Timeout:      cfg.API.Breaker.Timeout,
			FailureRatio: cfg.API.Breaker.FailureRatio,
			MinRequests:  cfg.API.Breaker.MinRequests,
		},
	})
	if err != nil {
		return err
	}

	registry := auth.NewRegistry(func(sid string) (auth.Storage, auth.Gateway) {
		return session.NewStore(backend, sid), tr.NewClient()
	}, auth.RegistryOptions{
		IdleTTL:        cfg.Auth.IdleTTL,
		MaxEntries:     cfg.Auth.MaxControllers,
		ResendCooldown: cfg.Auth.ResendCooldown,
		Logger:         zlog,
	})
	defer registry.Close()

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	form.SetSecret([]byte(cfg.Session.CSRFKey))
	views := view.New(view.Options{OverrideDir: cfg.View.OverrideDir, CacheSize: cfg.View.CacheSize})
	guard := &acl.Guard{
		Cookies:   session.NewCookies(cfg.Session.CookieName, []byte(cfg.Session.HashKey), cfg.Session.MaxAge),
		Registry:  registry,
		ReadyWait: cfg.ACL.ReadyWait,
		Loading:   views.Loading(),
	}

	r := chi.NewRouter()
	r.Use(
		middleware.AccessLog(zlog),
		middleware.Recover,
		middleware.Tracing,
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		requestinfo.Enrich(requestinfo.Options{TrustProxy: cfg.HTTP.TrustProxy}),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle(view.AssetPrefix+"*", views.Static())

	r.Group(func(r chi.Router) {
		r.Use(guard.Attach)
		if cfg.Debug.Enabled {
			module.Mount(r, &module.Env{
				Config:      cfg,
				Breaker:     tr.BreakerState,
				Controllers: registry.Len,
			})
			zlog.Warn("debug module enabled", zap.Strings("paths", module.Paths()))
		}
		deps := component.Deps{View: views, Guard: guard, Log: zlog}
		if err = component.Mount(r, deps, component.All()...); err != nil {
			return
		}
	})
	if err != nil {
		return err
	}
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		views.Error(w, req, http.StatusNotFound, "Page not found")
	})

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	return server.Run(ctx, server.New(cfg.HTTP.ListenAddr, r), zlog)
}
