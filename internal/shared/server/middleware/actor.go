package middleware

import "github.com/gin-gonic/gin"

const actorIDKey = "actorId"

// Actor copies the acting user's identity from the X-Actor-Id header into
// the request context. Authentication itself is handled upstream; this
// service only needs to know who to attribute state changes to.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Actor-Id"); id != "" {
			c.Set(actorIDKey, id)
		}
		c.Next()
	}
}

// ActorIDFromContext fetches the actor ID stored by Actor middleware.
func ActorIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(actorIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
