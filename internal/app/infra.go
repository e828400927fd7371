package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo/memstore"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo/mongostore"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/authorize"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/constants"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/database"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/email"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/observability"
	redispkg "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/redis"
	s3pkg "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/s3"
)

// InfraModule provides all infrastructure dependencies. Redis, NATS and S3
// are optional; their providers return nil when unconfigured.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideNatsClient),
)

// OpenMongo connects to the configured Mongo database.
func OpenMongo(ctx context.Context, cfg *config.Config) (*mongostore.Store, *database.DB, error) {
	db, err := database.New(ctx, database.FromCentralConfig(cfg.Mongo))
	if err != nil {
		return nil, nil, err
	}
	return mongostore.New(db.Database()), db, nil
}

// OpenStore builds the repo.Client for the configured store driver.
func OpenStore(ctx context.Context, cfg *config.Config) (*repo.Client, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case constants.StoreDriverMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		return memstore.New().Client(), nil
	case constants.StoreDriverMongo:
		store, db, err := OpenMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		return store.Client(db.Close), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), database.FromCentralConfig(cfg.Mongo).ConnectTimeout())
	defer cancel()

	client, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing store connection")
			return client.Close(ctx)
		},
	})
	return client, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		slog.Info("redis not configured; analytics cache and shared rate limiting disabled")
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization(cfg *config.Config) (authorize.IAuthorization, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)
	auth, err := authorize.New(acfg)
	if err != nil {
		return nil, err
	}
	if acfg.EnableAudit {
		return authorize.NewAuditedAuthorization(auth, slog.Default()), nil
	}
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	return s3pkg.New(cfg.S3)
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		slog.Info("nats not configured; notifications are delivered in-process")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name(constants.AppName))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
