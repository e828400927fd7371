package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/authorize"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/reqctx"
)

// RequirePermission checks the role from the request claims against the
// casbin policy. It must run after AuthRequired. Project ownership is
// checked later by the services.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx := c.Context()
		if !reqctx.IsAuthenticated(ctx) {
			return fiber.ErrUnauthorized
		}

		role, err := authorize.RoleFromContext(ctx)
		if err != nil {
			return fiber.ErrForbidden
		}
		if err := auth.MustEnforce(ctx, role, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}
