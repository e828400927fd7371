package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/notification"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/review"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/task"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/email"
	pasetotoken "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/paseto"
	s3pkg "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/s3"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideNotificationService,
		ProvideDispatcher,
		ProvideSink,
		ProvideReviewService,
		ProvideTaskService,
		ProvidePasetoManager,
	),
)

func ProvideNotificationService(db *repo.Client) notification.Service {
	return notification.New(db)
}

func ProvideDispatcher(svc notification.Service, db *repo.Client, mail *email.Client, cfg *config.Config) *notification.Dispatcher {
	var mailer notification.Mailer
	if mail != nil && mail.Enabled() {
		mailer = mail
	}
	return notification.NewDispatcher(svc, db, mailer, notification.DispatcherConfig{
		AppName: cfg.Email.AppName,
		BaseURL: cfg.Email.BaseURL,
	})
}

// ProvideSink publishes to NATS when connected and falls back to in-process
// delivery otherwise.
func ProvideSink(lc fx.Lifecycle, nc *nats.Conn, d *notification.Dispatcher) notification.Sink {
	if nc != nil {
		return notification.NewNATSSink(nc)
	}
	sink := notification.NewInlineSink(d)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("waiting for in-flight notifications")
			sink.Wait()
			return nil
		},
	})
	return sink
}

func ProvideReviewService(db *repo.Client, sink notification.Sink, rdb *redis.Client, files *s3pkg.Client, cfg *config.Config) review.Service {
	var store review.AttachmentStore
	if files != nil {
		store = files
	}
	return review.New(db, sink, rdb, store, review.FromCentralConfig(cfg.Review))
}

func ProvideTaskService(db *repo.Client, sink notification.Sink, cfg *config.Config) task.Service {
	return task.New(db, sink, task.FromCentralConfig(cfg.Review))
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
