package respond

import "github.com/gin-gonic/gin"

// JSON writes the payload with the given status. Handlers reply through
// here or through Error so the wire surface stays uniform.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
