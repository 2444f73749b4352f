package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
)

const actorContextKey = "actor"

// ActorMiddleware builds the caller's Actor from the identity headers
// the gateway injects after authentication. Authentication itself
// happens upstream; this service only consumes the result.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := domain.Actor{
			ID:      c.GetHeader("X-Actor-Id"),
			Role:    domain.ActorRole(c.GetHeader("X-Actor-Role")),
			FleetID: c.GetHeader("X-Actor-Fleet"),
		}

		if hubs := c.GetHeader("X-Actor-Hubs"); hubs != "" {
			for _, h := range strings.Split(hubs, ",") {
				if h = strings.TrimSpace(h); h != "" {
					actor.HubIDs = append(actor.HubIDs, h)
				}
			}
		}

		if actor.Role == "" {
			actor.Role = domain.ActorRoleOps
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the Actor the middleware attached to the
// request.
func ActorFromContext(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
