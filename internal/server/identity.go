package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const userIDHeader = "X-User-ID"

// userIDFromRequest reads the caller identity the auth proxy injected.
// Authentication itself happens upstream; an absent or malformed header
// is treated as unauthenticated.
func userIDFromRequest(c *gin.Context) (snowflake.ID, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		AbortWithError(c, ErrUnauthorized)
		return 0, false
	}

	id, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return 0, false
	}

	return id, true
}
