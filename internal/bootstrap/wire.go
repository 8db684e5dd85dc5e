package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/audit"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/config"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
	http_handlers "github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/transport/http/router"
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

	NewDB func(addr string, debug bool) (*sql.DB, error)

	NewRedis func(addr, password string, db int) *redis.Client

	NewPublisher func(rabbitURL, exchange string) (Publisher, error)

	NewRouter func(router.Deps) (http.Handler, error)

	// JanitorInterval controls how often expired ledger rows are purged.
	// Zero disables the janitor.
	JanitorInterval time.Duration
}

// Publisher is a broker-backed accounts.EventPublisher.
type Publisher interface {
	accounts.EventPublisher
	PingContext(ctx context.Context) error
	Close() error
}

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
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

	ctx := context.Background()

	// 1) users (postgres or memory)
	var (
		sqlDB    *sql.DB
		userRepo accounts.UserRepo
	)
	if cfg.StoreBackend == config.BackendPostgres {
		sqlDB, err = deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return nil, nil, err
		}
		db := sqlDB
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBMigrate {
			if err := postgres.Migrate(ctx, sqlDB); err != nil {
				return fail(err)
			}
		}
		userRepo = postgres.NewUserRepo(sqlDB)
	} else {
		logger.Logger.Warn().Msg("STORE_BACKEND=memory; accounts will not survive a restart")
		userRepo = memory.NewUserRepo()
	}
	baseRepo := userRepo

	// 2) redis (best-effort unless it backs the ledger)
	var redisCli *redis.Client
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			if cfg.LedgerBackend == config.BackendRedis {
				return fail(fmt.Errorf("redis required by LEDGER_BACKEND: %w", err))
			}
			logger.Logger.Warn().Err(err).Msg("redis unavailable; user cache disabled")
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			userRepo = redis.NewCachedUserRepo(userRepo, redisCli, cfg.UserCacheTTL)
		}
	}

	// 3) ledger
	var ledger auth.RefreshLedger
	switch cfg.LedgerBackend {
	case config.BackendRedis:
		ledger = redis.NewLedger(redisCli, userRepo)
	case config.BackendPostgres:
		ledger = postgres.NewRefreshTokenRepo(sqlDB)
	default:
		ledger = memory.NewLedger(userRepo)
	}

	// 4) publisher
	var (
		pub    accounts.EventPublisher = memory.NewNoopPublisher()
		broker Publisher
	)
	if cfg.RabbitURL != "" && deps.NewPublisher != nil {
		p, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if !cfg.IsDev() {
				return fail(err)
			}
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
		} else {
			pub, broker = p, p
			cleanupFns = append(cleanupFns, func() { _ = p.Close() })
		}
	}

	// 5) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt issuer")
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	issuer := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  cfg.JWTSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        cfg.JWTIssuer,
	})

	// seed (dev only); goes around the cache, nothing is cached yet
	if cfg.IsDev() {
		postgres.SeedUsers(ctx, baseRepo, hasher, postgres.DevSeeds)
	}

	// 6) services
	store := accounts.NewStore(userRepo, hasher, pub)
	auditLog := audit.New(logger.Logger)
	authSvc := auth.NewService(store, issuer, ledger).WithAudit(auditLog.Record)

	// 7) background purge of expired ledger rows
	if p, ok := ledger.(purger); ok && deps.JanitorInterval > 0 {
		stop := startJanitor(p, deps.JanitorInterval)
		cleanupFns = append(cleanupFns, stop)
	}

	// 8) handlers + middleware
	readiness := map[string]http_handlers.Pinger{}
	if sqlDB != nil {
		readiness["database"] = sqlDB
	}
	if redisCli != nil {
		readiness["redis"] = redisCli
	}
	if broker != nil {
		readiness["rabbitmq"] = broker
	}

	mux, err := deps.NewRouter(router.Deps{
		Health:      http_handlers.NewHealthHandler(readiness),
		Auth:        http_handlers.NewAuthHandler(authSvc),
		Users:       http_handlers.NewUsersHandler(store, auditLog),
		RequestIDMW: middleware.RequestID,
		AuthMW:      middleware.Auth(issuer, response.WriteError),
		MetricsMW:   middleware.Metrics,
		Metrics:     router.MetricsHandler(),
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() { runCleanup(cleanupFns) })
	}

	return srv, cleanup, nil
}

// startJanitor purges expired ledger rows every interval until stopped.
func startJanitor(p purger, every time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := p.PurgeExpired(ctx)
				if err != nil {
					logger.Logger.Warn().Err(err).Msg("ledger purge failed")
					continue
				}
				if n > 0 {
					logger.Logger.Info().Int64("purged", n).Msg("expired refresh tokens purged")
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		NewRedis:   redis.New,
		NewPublisher: func(url, exchange string) (Publisher, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewRouter:       router.New,
		JanitorInterval: time.Hour,
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
