package middleware

import (
	"bitwise74/media-api/internal/access"

	"github.com/gin-gonic/gin"
)

// CallerFrom builds the access caller from whatever the JWT middleware put
// into the context. Anonymous requests get the zero caller, which holds no
// capabilities.
func CallerFrom(c *gin.Context) access.Caller {
	userID := c.GetString("userID")
	if userID == "" {
		return access.Caller{}
	}

	return access.Caller{
		ID:   userID,
		Caps: access.CapabilitiesFor(c.GetString("userRole")),
	}
}
