package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrmrights/internal/domain/audit"
	"hrmrights/internal/domain/auth"
	"hrmrights/internal/domain/rights"
	"hrmrights/internal/platform/cache"
	"hrmrights/internal/platform/config"
	"hrmrights/internal/platform/db"
	"hrmrights/internal/platform/jobs"
	"hrmrights/internal/platform/metrics"
	audithandler "hrmrights/internal/transport/http/handlers/audit"
	authhandler "hrmrights/internal/transport/http/handlers/auth"
	rightshandler "hrmrights/internal/transport/http/handlers/rights"
	"hrmrights/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Cache    *cache.Cache
	Metrics  *metrics.Collector
	Jobs     *jobs.Service
	Sessions *rights.SessionRegistry
	Router   http.Handler
}

// Deps are the collaborators the router is built from. Nil optional fields
// switch the matching feature off.
type Deps struct {
	Auth        authhandler.Authenticator
	SessionsDB  middleware.SessionChecker
	Perms       middleware.PermissionStore
	Rights      rightshandler.RightsService
	Editors     *rights.SessionRegistry
	AuditLog    audit.Recorder
	AuditReader audithandler.Reader
	Idempotency middleware.IdempotencyStore
	Jobs        rightshandler.JobQueue
	Metrics     *metrics.Collector
	Ready       func(ctx context.Context) error
}

// New connects to postgres (and redis when configured), applies migrations
// and seed data as configured, and assembles the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool}

	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, cfg.MigrationsDir)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		if len(applied) > 0 {
			slog.Info("migrations applied", "versions", applied)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	var sourceCache rights.Cache
	if addrs := cache.Addrs(cfg.RedisAddr); len(addrs) > 0 {
		app.Cache = cache.New(addrs, cfg.RedisPassword, "rights")
		sourceCache = app.Cache
	}

	app.Metrics = metrics.New()
	app.Sessions = rights.NewSessionRegistry(cfg.EditorIdleTimeout)
	app.Jobs = jobs.New(pool, cfg).WithSweeper(app.Sessions, app.Metrics)

	authStore := auth.NewStore(pool)
	auditService := audit.New(pool)
	rightsService := rights.NewService(rights.NewStore(pool), sourceCache, cfg.RightsCacheTTL).WithMetrics(app.Metrics)

	app.Router = NewRouter(cfg, Deps{
		Auth:        auth.NewService(authStore, cfg.JWTSecret),
		SessionsDB:  authStore,
		Perms:       authStore,
		Rights:      rightsService,
		Editors:     app.Sessions,
		AuditLog:    auditService,
		AuditReader: auditService,
		Idempotency: middleware.NewIdempotencyStore(pool),
		Jobs:        app.Jobs,
		Metrics:     app.Metrics,
		Ready:       app.ready,
	})
	return app, nil
}

func (a *App) ready(ctx context.Context) error {
	if err := a.DB.Ping(ctx); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if a.Cache != nil {
		if err := a.Cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader, middleware.IdempotencyHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Total-Count"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	router.Use(middleware.Auth(cfg.JWTSecret, deps.SessionsDB))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				slog.Warn("readiness check failed", "err", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(deps.Auth, deps.AuditLog)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.With(middleware.RequireAuth).Get("/me", authHandler.HandleMe)

		rightsHandler := rightshandler.NewHandler(deps.Rights, deps.Editors, deps.Perms)
		rightsHandler.Audit = deps.AuditLog
		rightsHandler.Idempotency = deps.Idempotency
		rightsHandler.Jobs = deps.Jobs
		if deps.Metrics != nil {
			rightsHandler.Metrics = deps.Metrics
		}
		rightsHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(deps.AuditReader, deps.Perms)
		auditHandler.RegisterRoutes(r)
	})

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("rights server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
