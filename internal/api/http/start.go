package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http/router"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/app"
)

// Start builds the fx graph and blocks until the process receives a
// termination signal.
func Start(cfg *config.Config, timeout time.Duration, opts ...fx.Option) {
	fx.New(append([]fx.Option{
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// NewServer registers the listen hook; invoking *fiber.App forces it.
		fx.Invoke(func(*fiber.App) {}),

		fx.StopTimeout(timeout),
	}, opts...)...).Run()
}
