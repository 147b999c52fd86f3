// Package server wires configuration, storage and the HTTP surface into a
// runnable application with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rosterd/rosterd/internal/api"
	"github.com/rosterd/rosterd/internal/auth"
	"github.com/rosterd/rosterd/internal/cache"
	"github.com/rosterd/rosterd/internal/config"
	"github.com/rosterd/rosterd/internal/db"
	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/health"
	"github.com/rosterd/rosterd/internal/logger"
	"github.com/rosterd/rosterd/internal/memstore"
	"github.com/rosterd/rosterd/internal/metrics"
	"github.com/rosterd/rosterd/internal/store"
)

const version = "1.0.0"

type App struct {
	config  *config.Config
	log     *logger.Logger
	store   store.Store
	cache   *cache.Cache
	metrics *metrics.Metrics
	handler http.Handler
}

// NewApp connects the backing services named by cfg and builds the router.
// Without DB_URI the app runs on an in-memory store; without REDIS_ADDR reads
// are not cached.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	base := logger.New(&logger.Config{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
	logger.SetDefault(base)
	log := base.WithComponent("server")

	app := &App{config: cfg, log: log, metrics: metrics.New()}

	var err error
	app.store, err = openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.RedisAddr != "" {
		c, err := cache.New(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			log.Warn(ctx, "redis unavailable, running without read cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			app.cache = c
		}
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.Algorithm,
		TTL:       cfg.AccessTokenExpiry(),
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token codec: %w", err)
	}

	authOpts := []auth.Option{
		auth.WithObserver(app.metrics),
		auth.WithLogger(base.WithComponent("auth")),
	}
	service := auth.NewService(app.store, auth.NewHasher(cfg.BcryptCost), codec, authOpts...)
	gate := auth.NewGate(codec, app.store, authOpts...)

	httpLog := base.WithComponent("http")
	apperrors.SetReporter(func(r *http.Request, err error) {
		httpLog.Error(r.Context(), "request failed", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	})

	probes := []health.Probe{{Name: "store", Pinger: app.store}}
	routerCfg := api.RouterConfig{
		Store:              app.store,
		Gate:               gate,
		AuthHandlers:       auth.NewHandlers(service, cfg.RevealLoginFailure),
		Metrics:            app.metrics,
		Logger:             httpLog,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if app.cache != nil {
		routerCfg.Cache = app.cache
		probes = append(probes, health.Probe{Name: "cache", Pinger: app.cache, Optional: true})
	}
	routerCfg.Health = health.NewHandler(health.NewChecker(&health.CheckerConfig{
		Probes:  probes,
		Version: version,
	}))
	app.handler = api.NewRouter(routerCfg)

	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn(ctx, "DB_URI not set, using in-memory store")
		return memstore.New(), nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := conn.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info(ctx, "database ready")
	return db.NewStore(conn), nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests for up to the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.config.ServerAddr, err)
	}
	return a.Serve(ctx, ln)
}

func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info(ctx, "server starting", map[string]interface{}{"addr": ln.Addr().String()})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the store and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
