package app

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/auth"
	"github.com/xenking/food-kart/internal/pkg/clock"
	"github.com/xenking/food-kart/internal/storage/mongo"
	"github.com/xenking/food-kart/internal/storage/postgres"
	"github.com/xenking/food-kart/pkg/health"
)

// backend is an opened document store plus what is needed to probe and
// release it.
type backend struct {
	store docstore.Store
	ping  health.CheckFunc
	close func()
}

func openStore(ctx context.Context, lg *zap.Logger, cfg StoreConfig) (*backend, error) {
	switch cfg.Backend {
	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		store := postgres.NewStore(pool, lg.Named("postgres"))
		return &backend{
			store: store,
			ping:  pool.Ping,
			close: func() {
				_ = store.Close(context.Background())
				pool.Close()
			},
		}, nil
	case BackendMongo:
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		return &backend{
			store: store,
			ping:  store.Ping,
			close: func() { _ = store.Close(context.Background()) },
		}, nil
	default:
		lg.Warn("Using in-memory document store; data is lost on restart")
		store := docstore.NewMemoryStore()
		return &backend{
			store: store,
			ping:  func(context.Context) error { return nil },
			close: func() { _ = store.Close(context.Background()) },
		}, nil
	}
}

// adminSessions is the admin session store with its probe and release.
type adminSessions struct {
	store auth.SessionStore
	ping  health.CheckFunc
	close func()
}

func openSessions(ctx context.Context, cfg SessionConfig, clk clock.Clock) (*adminSessions, error) {
	if cfg.Backend != BackendRedis {
		return &adminSessions{
			store: auth.NewMemorySessions(clk),
			close: func() {},
		}, nil
	}

	opts, err := redisOptions(cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &adminSessions{
		store: auth.NewRedisSessions(client),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		close: func() { _ = client.Close() },
	}, nil
}

// redisOptions accepts either host:port or a redis:// URL.
func redisOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}
