package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/olivezebra/mensa-api/internal/adapters/httpapi"
	"github.com/olivezebra/mensa-api/internal/adapters/httpclient"
	memgrouprepo "github.com/olivezebra/mensa-api/internal/adapters/memory/grouprepo"
	memmensarepo "github.com/olivezebra/mensa-api/internal/adapters/memory/mensarepo"
	memsessionrepo "github.com/olivezebra/mensa-api/internal/adapters/memory/sessionrepo"
	memuserrepo "github.com/olivezebra/mensa-api/internal/adapters/memory/userrepo"
	postgres "github.com/olivezebra/mensa-api/internal/adapters/postgres"
	pggrouprepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/grouprepo"
	pgmensarepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/mensarepo"
	pgsessionrepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/sessionrepo"
	pguserrepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/userrepo"
	redisadapter "github.com/olivezebra/mensa-api/internal/adapters/redis"
	rdgrouprepo "github.com/olivezebra/mensa-api/internal/adapters/redis/grouprepo"
	rdmensarepo "github.com/olivezebra/mensa-api/internal/adapters/redis/mensarepo"
	rdsessionrepo "github.com/olivezebra/mensa-api/internal/adapters/redis/sessionrepo"
	rduserrepo "github.com/olivezebra/mensa-api/internal/adapters/redis/userrepo"
	"github.com/olivezebra/mensa-api/internal/app/groups"
	"github.com/olivezebra/mensa-api/internal/app/layout"
	"github.com/olivezebra/mensa-api/internal/app/mensas"
	"github.com/olivezebra/mensa-api/internal/app/users"
	"github.com/olivezebra/mensa-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/olivezebra/mensa-api/internal/platform/clock"
	"github.com/olivezebra/mensa-api/internal/platform/config"
	"github.com/olivezebra/mensa-api/internal/platform/logging"
	"github.com/olivezebra/mensa-api/internal/platform/observability"
	"github.com/olivezebra/mensa-api/internal/platform/seed"
	grouprepoport "github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
	mensarepoport "github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
	sessionrepoport "github.com/olivezebra/mensa-api/internal/ports/out/sessionrepo"
	userrepoport "github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

type (
	mensaStore interface {
		mensarepoport.Repository
		mensarepoport.Writer
	}
	groupStore interface {
		grouprepoport.Repository
		grouprepoport.Writer
	}
	userStore interface {
		userrepoport.Repository
		userrepoport.Writer
	}
	sessionStore interface {
		sessionrepoport.Repository
		sessionrepoport.Writer
	}
)

// repos bundles one storage backend's read and write sides.
type repos struct {
	mensas   mensaStore
	groups   groupStore
	users    userStore
	sessions sessionStore
	close    func()
}

func (r repos) seedStores() seed.Stores {
	return seed.Stores{Mensas: r.mensas, Groups: r.groups, Users: r.users, Sessions: r.sessions}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, logger, observability.TracingConfig{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	if cfg.SeedFile != "" {
		sum, err := seed.LoadFile(ctx, cfg.SeedFile, store.seedStores())
		if err != nil {
			return fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
		}
		logger.Info("seed applied",
			zap.String("file", cfg.SeedFile),
			zap.Int("users", sum.Users),
			zap.Int("mensas", sum.Mensas),
			zap.Int("groups", sum.Groups),
			zap.Int("sessions", sum.Sessions),
		)
	}

	authMW, err := authMiddleware(cfg, logger)
	if err != nil {
		return err
	}

	renderClient := httpclient.New(httpclient.Options{
		Name: "layout-renderer",
		Breaker: httpclient.BreakerSettings{
			ConsecutiveFailures: cfg.RenderBreakerFailures,
			Cooldown:            cfg.RenderBreakerCooldown,
		},
		Logger: logger,
	})
	proxy := layout.NewProxy(renderClient, cfg.LayoutHost, logger.Named("layout"))

	api := httpapi.NewServer(
		mensas.NewService(store.mensas, proxy),
		groups.NewService(store.groups, store.sessions, platformclock.NewSystemClock()),
		users.NewService(store.users),
		logger,
	)
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		Logger:         logger,
		ServiceName:    cfg.ServiceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.StorageBackend),
			zap.String("auth_mode", cfg.AuthMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (repos, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return repos{}, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.RunMigrations {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return repos{}, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
		}
		return repos{
			mensas:   pgmensarepo.NewRepo(pool),
			groups:   pggrouprepo.NewRepo(pool),
			users:    pguserrepo.NewRepo(pool),
			sessions: pgsessionrepo.NewRepo(pool),
			close:    pool.Close,
		}, nil

	case config.StorageRedis:
		client, err := redisadapter.Open(ctx, redisadapter.Options{URL: cfg.RedisURL, KeyPrefix: cfg.RedisKeyPrefix})
		if err != nil {
			return repos{}, fmt.Errorf("open redis: %w", err)
		}
		keys := redisadapter.NewKeys(cfg.RedisKeyPrefix)
		return repos{
			mensas:   rdmensarepo.NewRepo(client, keys),
			groups:   rdgrouprepo.NewRepo(client, keys),
			users:    rduserrepo.NewRepo(client, keys),
			sessions: rdsessionrepo.NewRepo(client, keys),
			close:    func() { _ = client.Close() },
		}, nil

	default:
		return repos{
			mensas:   memmensarepo.NewRepo(),
			groups:   memgrouprepo.NewRepo(),
			users:    memuserrepo.NewRepo(),
			sessions: memsessionrepo.NewRepo(),
			close:    func() {},
		}, nil
	}
}

// authMiddleware guards the user-scoped routes. In dev mode the subject comes from
// X-Debug-Subject (or DEV_SUBJECT) and no token is checked.
func authMiddleware(cfg config.Config, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if cfg.AuthMode == config.AuthModeDev {
		logger.Warn("auth mode dev: bearer tokens are not verified", zap.String("dev_subject", cfg.DevSubject))
		return httpapi.NewDevAuthMiddleware(cfg.DevSubject), nil
	}
	jwtCfg, err := config.LoadJWTConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	return httpapi.NewAuthMiddleware(jwtverifier.New(jwtCfg)), nil
}
