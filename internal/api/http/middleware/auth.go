package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	pasetotoken "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/paseto"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/reqctx"
)

// SessionKeyPrefix namespaces session ids in Redis.
const SessionKeyPrefix = "session:"

// AuthRequired validates a Bearer PASETO access token. When rdb is set and
// requireSession is on, the token's session must also exist in Redis.
// On success the claims are stored in c.Locals(pasetotoken.CtxKeyClaims) and
// on the request context.
func AuthRequired(mgr *pasetotoken.Manager, rdb *redis.Client, requireSession bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		// Only access tokens are accepted on protected routes
		if claims.Type != pasetotoken.TokenTypeAccess {
			return fiber.ErrUnauthorized
		}

		if requireSession && rdb != nil {
			if claims.SessionID == nil {
				return fiber.ErrUnauthorized
			}
			if err := rdb.Get(c.Context(), SessionKeyPrefix+claims.SessionID.String()).Err(); err != nil {
				return fiber.ErrUnauthorized
			}
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
