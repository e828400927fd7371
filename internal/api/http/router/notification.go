package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http/handler"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(
	api fiber.Router,
	me fiber.Router,
	nh *handler.NotificationHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	notifs := api.Group("/notifications", authRequired, requirePerm(authorize.ResourceNotification, authorize.ActionManage))

	notifs.Get("/", nh.List)
	notifs.Patch("/read-all", nh.MarkAllRead)
	notifs.Patch("/:id/read", nh.MarkRead)

	me.Get("/notification-prefs", requirePerm(authorize.ResourceNotification, authorize.ActionManage), nh.GetPrefs)
	me.Put("/notification-prefs", requirePerm(authorize.ResourceNotification, authorize.ActionManage), nh.UpdatePrefs)
}
