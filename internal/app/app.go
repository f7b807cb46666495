// Package app wires configuration, storage, services and the HTTP router
// into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eci4ever/bizadmin/internal/adapters/in/http/middleware"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/router"
	"github.com/eci4ever/bizadmin/internal/adapters/out/mailer"
	"github.com/eci4ever/bizadmin/internal/adapters/out/ratelimit"
	"github.com/eci4ever/bizadmin/internal/adapters/out/sqlite"
	"github.com/eci4ever/bizadmin/internal/adapters/out/telemetry"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/config"
	"github.com/eci4ever/bizadmin/internal/domain"
	analyticsuc "github.com/eci4ever/bizadmin/internal/usecase/analytics"
	authuc "github.com/eci4ever/bizadmin/internal/usecase/auth"
	cronuc "github.com/eci4ever/bizadmin/internal/usecase/cron"
	customersuc "github.com/eci4ever/bizadmin/internal/usecase/customers"
	healthuc "github.com/eci4ever/bizadmin/internal/usecase/health"
	invoicesuc "github.com/eci4ever/bizadmin/internal/usecase/invoices"
	legacyuc "github.com/eci4ever/bizadmin/internal/usecase/legacyusers"
)

// ShutdownTimeout bounds the graceful HTTP shutdown.
const ShutdownTimeout = 10 * time.Second

// CleanupJobID identifies the expired-row sweep in the scheduler.
const CleanupJobID = "auth-cleanup"

// App holds every long-lived component of a running server.
type App struct {
	cfg      *config.Config
	log      *log.Logger
	db       *sqlite.DB
	store    *sqlite.Store
	auth     *authuc.Service
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
	cron     *cronuc.Scheduler
	echo     *echo.Echo
	closers  []io.Closer
}

// OpenDatabase opens the configured database without migrating it.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *log.Logger) (*sqlite.DB, error) {
	return sqlite.Open(ctx, sqlite.Options{Path: cfg.Database.Path, Log: logger.WithPrefix("sqlite")})
}

// New opens and migrates the database and builds the services, the
// scheduler and the router. The caller owns Close.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	db, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a, err := build(ctx, cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, db *sqlite.DB, logger *log.Logger) (*App, error) {
	if err := sqlite.Migrate(ctx, db, sqlite.MigrateUp, logger.WithPrefix("migrate")); err != nil {
		return nil, err
	}
	store := sqlite.NewStore(db, logger.WithPrefix("sqlite"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	authSvc := authuc.NewService(authuc.Config{
		Secret:     []byte(cfg.Auth.Secret),
		SessionTTL: cfg.Auth.SessionTTL,
		BaseURL:    cfg.Http.BaseURL,
	}, store, mailer.NewLogMailer(logger.WithPrefix("mailer")), metrics, logger.WithPrefix("auth"))

	cookies, err := middleware.NewCookieStore([]byte(cfg.Auth.Secret), middleware.CookieOptions{
		Secure: cfg.Http.Https,
		MaxAge: cfg.Auth.SessionTTL,
	})
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	rl := cfg.Auth.RateLimit
	limiter, err := ratelimit.NewStore(ratelimit.Options{
		Backend: rl.Backend, Dir: filepath.Join(rl.Dir, "auth"), RPS: rl.RPS, Burst: rl.Burst,
	}, logger.WithPrefix("ratelimit"))
	if err != nil {
		return nil, err
	}
	if c, ok := limiter.(io.Closer); ok {
		closers = append(closers, c)
	}
	strict, err := ratelimit.NewStore(ratelimit.Options{
		Backend: rl.Backend, Dir: filepath.Join(rl.Dir, "sign-in"), RPS: rl.SignInRPS, Burst: rl.SignInBurst,
	}, logger.WithPrefix("ratelimit"))
	if err != nil {
		closeAll(closers, logger)
		return nil, err
	}
	if c, ok := strict.(io.Closer); ok {
		closers = append(closers, c)
	}

	e := router.New(router.Deps{
		Authority:     authSvc,
		Customers:     customersuc.NewService(store.Customers(), logger.WithPrefix("customers")),
		Invoices:      invoicesuc.NewService(store.Invoices(), logger.WithPrefix("invoices")),
		LegacyUsers:   legacyuc.NewService(store.LegacyUsers(), logger.WithPrefix("users")),
		Analytics:     analyticsuc.NewService(store.Invoices(), store.Customers()),
		Health:        healthuc.NewService(map[string]out.Pinger{"database": store}, healthuc.DefaultTimeout, logger.WithPrefix("health")),
		Sessions:      cookies,
		Limiter:       limiter,
		StrictLimiter: strict,
		Registry:      registry,
		Log:           logger.WithPrefix("http"),
	}, router.Options{
		HTTPS:             cfg.Http.Https,
		TrustedProxies:    cfg.Http.TrustedProxies,
		MetricsAllow:      cfg.Http.MetricsAllow,
		LegacyUsersPublic: cfg.LegacyUsersPublic(),
		BodyLimit:         cfg.Http.BodyLimit,
	})
	e.Server.ReadTimeout = cfg.Http.ReadTimeout
	e.Server.WriteTimeout = cfg.Http.WriteTimeout

	scheduler := cronuc.NewScheduler(logger.WithPrefix("cron"))
	cleaner := newCleaner(authSvc, metrics, logger.WithPrefix("cleanup"))
	if err := scheduler.Add(CleanupJobID, "Expired sessions and verifications", cfg.Cleanup.Schedule, cleaner.Run); err != nil {
		closeAll(closers, logger)
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      logger,
		db:       db,
		store:    store,
		auth:     authSvc,
		metrics:  metrics,
		registry: registry,
		cron:     scheduler,
		echo:     e,
		closers:  closers,
	}, nil
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.echo
}

// Scheduler returns the background job scheduler.
func (a *App) Scheduler() *cronuc.Scheduler {
	return a.cron
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// canceled or the server fails. Shutdown is bounded by ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	a.cron.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting HTTP server", "addr", a.cfg.Addr(), "env", a.cfg.General.Env)
		if err := a.echo.Start(a.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	a.log.Info("Shutting down server...")
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Server shutdown error", "error", err)
	}
	if err := a.cron.Stop(shutdownCtx); err != nil {
		a.log.Warn("Scheduler did not stop in time", "error", err)
	}
	return runErr
}

// CreateAdmin creates an admin account or promotes an existing user.
func (a *App) CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	return a.auth.EnsureAdmin(ctx, name, email, password)
}

// ListUsers pages through auth users for operator tooling.
func (a *App) ListUsers(ctx context.Context, q domain.ListUsersQuery) (*domain.UserPage, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	users, total, err := a.store.Users().List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.UserPage{Users: users, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// Close releases the limiter stores and the database.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	closeAll(a.closers, a.log)
	return a.db.Close()
}

func closeAll(closers []io.Closer, logger *log.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}
}
