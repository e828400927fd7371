package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http/handler"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http/middleware"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/notification"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/review"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/task"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/authorize"
	pasetotoken "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client `optional:"true"`
	Auth            authorize.IAuthorization
	PasetoMgr       *pasetotoken.Manager
	ReviewSvc       review.Service
	TaskSvc         task.Service
	NotificationSvc notification.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Redis, r.p.Cfg.Authentication.RequireSession)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	taskH := handler.NewTaskHandler(r.p.TaskSvc)
	reviewH := handler.NewReviewHandler(r.p.ReviewSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc)

	api := app.Group("/api/v1")
	// Groups run their handlers for every route under the prefix, so each
	// authenticated prefix is grouped exactly once.
	tasks := api.Group("/tasks", authRequired)
	me := api.Group("/me", authRequired)

	r.registerTaskRoutes(tasks, me, taskH, requirePerm)
	r.registerReviewRoutes(api, tasks, reviewH, authRequired, requirePerm)
	r.registerNotificationRoutes(api, me, notificationH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if r.p.Redis == nil {
				return true
			}
			return r.p.Redis.Ping(c.Context()).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
