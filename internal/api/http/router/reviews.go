package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http/handler"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/authorize"
)

func (r *Router) registerReviewRoutes(
	api fiber.Router,
	tasks fiber.Router,
	rh *handler.ReviewHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	tasks.Post("/:taskID/proof", requirePerm(authorize.ResourceProof, authorize.ActionCreate), rh.Submit)

	proofs := api.Group("/proofs", authRequired)
	proofs.Put("/:proofID", requirePerm(authorize.ResourceProof, authorize.ActionUpdate), rh.Resubmit)
	proofs.Get("/:proofID", requirePerm(authorize.ResourceProof, authorize.ActionRead), rh.Status)
	proofs.Get("/:proofID/attachments", requirePerm(authorize.ResourceProof, authorize.ActionRead), rh.Attachments)
	proofs.Post("/:proofID/review", requirePerm(authorize.ResourceReview, authorize.ActionReview), rh.Review)

	api.Post("/attachments/upload-url", authRequired, requirePerm(authorize.ResourceProof, authorize.ActionCreate), rh.UploadURL)

	reviews := api.Group("/reviews", authRequired)
	reviews.Get("/pending", requirePerm(authorize.ResourceReview, authorize.ActionList), rh.Pending)
	reviews.Get("/analytics", requirePerm(authorize.ResourceAnalytics, authorize.ActionRead), rh.Analytics)
}
