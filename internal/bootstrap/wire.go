package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/baechuer/admin-console/internal/application/directory"
	"github.com/baechuer/admin-console/internal/application/login"
	"github.com/baechuer/admin-console/internal/application/session"
	"github.com/baechuer/admin-console/internal/config"
	"github.com/baechuer/admin-console/internal/infrastructure/db/postgres"
	"github.com/baechuer/admin-console/internal/infrastructure/memory"
	"github.com/baechuer/admin-console/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/admin-console/internal/infrastructure/querycache"
	"github.com/baechuer/admin-console/internal/infrastructure/redis"
	"github.com/baechuer/admin-console/internal/infrastructure/upstream"
	"github.com/baechuer/admin-console/internal/logger"
	"github.com/baechuer/admin-console/internal/metrics"
	"github.com/baechuer/admin-console/internal/tracing"
	"github.com/baechuer/admin-console/internal/transport/http/handlers"
	"github.com/baechuer/admin-console/internal/transport/http/middleware"
	"github.com/baechuer/admin-console/internal/transport/http/response"
	"github.com/baechuer/admin-console/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	// NewDB is only called when DB_ADDR is set.
	NewDB func(addr string, debug bool) (*sql.DB, error)

	// Migrate runs schema migrations against a fresh DB handle.
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	// NewPublisher is only called when RABBIT_URL is set.
	NewPublisher func(url, exchange string) (Publisher, error)

	NewUpstream func(cfg upstream.ClientConfig) login.Upstream

	InitTracing func(ctx context.Context, cfg tracing.Config) (*tracing.Provider, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type Publisher interface {
	directory.EventPublisher
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) tracing (best-effort)
	if deps.InitTracing != nil {
		tp, err := deps.InitTracing(context.Background(), tracing.Config{
			ServiceVersion: "dev",
			OTLPEndpoint:   cfg.OTLPEndpoint,
			Enabled:        cfg.TracingEnabled,
		})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("tracing init failed; spans disabled")
		} else {
			cleanupFns = append(cleanupFns, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(ctx)
			})
		}
	}

	// 2) directory repository: postgres when configured, fixtures in memory otherwise
	var (
		userRepo directory.Repository
		sqlDB    *sql.DB
	)
	if cfg.DBAddr != "" {
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return fail(err)
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if deps.Migrate != nil {
			if err := deps.Migrate(context.Background(), db); err != nil {
				return fail(err)
			}
		}
		// seed (dev only)
		if cfg.Env == "dev" {
			if err := postgres.SeedUsers(context.Background(), db, directory.SeedUsers()); err != nil {
				logger.Logger.Warn().Err(err).Msg("directory seed failed")
			}
		}
		sqlDB = db
		userRepo = postgres.NewUserRepo(db)
	} else {
		mem := memory.NewUserRepo(directory.SeedUsers()...)
		if cfg.DirectoryMockLatency {
			mem = mem.WithLatency(memory.MockLatency)
		}
		userRepo = mem
		logger.Logger.Info().Bool("mock_latency", cfg.DirectoryMockLatency).Msg("using in-memory directory")
	}

	// 3) redis (best-effort)
	var redisCli *redis.Client
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		rc, ok := c.(*redis.Client)
		switch {
		case err != nil:
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-process stores")
			_ = c.Close()
		case !ok:
			_ = c.Close()
			return fail(errors.New("bootstrap: NewRedis did not return *redis.Client"))
		default:
			logger.Logger.Info().Msg("redis connected")
			redisCli = rc
			cleanupFns = append(cleanupFns, func() { _ = rc.Close() })
		}
	}

	// 4) session + cache stores
	var (
		sessionStore session.Store
		cacheStore   querycache.Store
	)
	if redisCli != nil {
		sessionStore = redis.NewSessionStore(redisCli)
		cacheStore = redis.NewCacheStore(redisCli)
	} else {
		sessionStore = memory.NewSessionStore()
		cacheStore = querycache.NewLRUStore(cfg.DirectoryCacheSize, cfg.DirectoryCacheTTL)
	}

	if cfg.DirectoryCacheTTL > 0 {
		userRepo = querycache.NewCachedUserRepo(userRepo, cacheStore, cfg.DirectoryCacheTTL)
	}

	// 5) publisher
	var pub directory.EventPublisher = memory.NewNoopPublisher()
	if cfg.RabbitURL != "" && deps.NewPublisher != nil {
		p, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		switch {
		case err == nil:
			pub = p
			cleanupFns = append(cleanupFns, func() { _ = p.Close() })
		case cfg.Env == "dev":
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
		default:
			return fail(err)
		}
	}

	// 6) services
	loginSvc := login.NewService(deps.NewUpstream(upstream.ClientConfig{
		BaseURL:   cfg.AuthAPIBaseURL,
		LoginPath: cfg.AuthLoginPath,
		Timeout:   cfg.UpstreamTimeout,
	}))
	sessionSvc := session.NewService(sessionStore, cfg.SessionTTL)
	directorySvc := directory.NewService(userRepo, pub)

	// 7) handlers + middleware
	cookie := middleware.SessionCookie{Name: cfg.SessionCookieName, Secure: cfg.SecureCookies()}

	authH := handlers.NewAuthHandler(loginSvc, sessionSvc, cookie)
	userH := handlers.NewUserHandler(directorySvc)
	pageH := handlers.NewPageHandler(cfg.StaticDir)

	checks := map[string]handlers.Checker{
		"upstream_config": func(context.Context) error {
			if cfg.AuthAPIBaseURL == "" {
				return errors.New("AUTH_API_BASE_URL not set")
			}
			return nil
		},
	}
	if redisCli != nil {
		checks["redis"] = redisCli.Ping
	}
	if sqlDB != nil {
		checks["db"] = sqlDB.PingContext
	}
	healthH := handlers.NewHealthHandler(checks)

	// rate limit (fail-open); shared across replicas only with redis
	rlCfg := middleware.FixedWindowConfig{
		RouteKey: "auth.login",
		Limit:    cfg.LoginRateLimit,
		Window:   cfg.LoginRateWindow,
	}
	loginRL := middleware.RateLimitInProcess(rlCfg, response.WriteError)
	if redisCli != nil {
		loginRL = middleware.RateLimitFixedWindow(redis.NewFixedWindowLimiter(redisCli), rlCfg, response.WriteError)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health:  healthH,
		Auth:    authH,
		Users:   userH,
		Pages:   pageH,
		Metrics: metrics.Handler(),

		SessionMW:        middleware.LoadSession(sessionSvc, cookie, response.WriteError),
		RequireSessionMW: middleware.RequireSession(response.WriteError),
		LoginRateLimitMW: loginRL,
		TracingMW:        middleware.Tracing(tracing.ServiceName),
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	logger.Logger.Info().
		Str("env", cfg.Env).
		Str("auth_api", cfg.AuthAPIBaseURL).
		Bool("redis", redisCli != nil).
		Bool("postgres", sqlDB != nil).
		Msg("server wired")

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      postgres.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (Publisher, error) {
			return rabbitmq.NewPublisher(url, exchange)
		},
		NewUpstream: func(cfg upstream.ClientConfig) login.Upstream {
			return upstream.NewAuthClient(cfg)
		},
		InitTracing: tracing.Init,
		NewRouter:   router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
