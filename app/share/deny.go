package share

import (
	"bitwise74/media-api/internal/access"
	"net/http"

	"github.com/gin-gonic/gin"
)

// denyJSON mirrors the file package's mapping. A dead or unknown token
// always reads as not found so probing tokens reveals nothing.
func denyJSON(c *gin.Context, requestID string, dec access.Decision) {
	switch dec.Reason {
	case access.DenyPasswordRequired:
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "A password is required to access this link",
			"requestID": requestID,
		})
	case access.DenyPasswordInvalid:
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Invalid password",
			"requestID": requestID,
		})
	case access.DenyExhausted, access.DenyExpired:
		c.JSON(http.StatusGone, gin.H{
			"error":     "This link is no longer available",
			"requestID": requestID,
		})
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Link not found",
			"requestID": requestID,
		})
	}
}
