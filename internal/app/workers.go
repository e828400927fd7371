package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/notification"
)

const (
	notificationQueue   = "timesheet-notification-worker"
	notificationTimeout = 30 * time.Second
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc         fx.Lifecycle
	NC         *nats.Conn `optional:"true"`
	Dispatcher *notification.Dispatcher
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		return
	}
	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			sub, err = startNotificationWorker(p.NC, p.Dispatcher)
			return err
		},
		OnStop: func(ctx context.Context) error {
			if sub == nil {
				return nil
			}
			return sub.Unsubscribe()
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

func startNotificationWorker(nc *nats.Conn, d *notification.Dispatcher) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(notification.SubjectWildcard(), notificationQueue, func(msg *nats.Msg) {
		ev, err := notification.DecodeEvent(msg.Data)
		if err != nil {
			slog.Warn("notification_worker: dropping malformed event", "subject", msg.Subject, "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := d.Handle(ctx, ev); err != nil {
			slog.Error("notification_worker: delivery failed", "type", ev.Type, "user_id", ev.UserID, "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	slog.Info("notification worker subscribed", "subject", notification.SubjectWildcard())
	return sub, nil
}
