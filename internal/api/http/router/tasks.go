package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http/handler"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/authorize"
)

func (r *Router) registerTaskRoutes(
	tasks fiber.Router,
	me fiber.Router,
	th *handler.TaskHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	tasks.Post("/", requirePerm(authorize.ResourceTask, authorize.ActionCreate), th.Create)
	tasks.Get("/:taskID", requirePerm(authorize.ResourceTask, authorize.ActionRead), th.Get)
	tasks.Post("/:taskID/assignments", requirePerm(authorize.ResourceAssignment, authorize.ActionCreate), th.Assign)
	tasks.Patch("/:taskID/progress", requirePerm(authorize.ResourceAssignment, authorize.ActionUpdate), th.Progress)

	me.Get("/assignments", requirePerm(authorize.ResourceAssignment, authorize.ActionList), th.Mine)
}
