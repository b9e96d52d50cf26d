package file

import (
	"bitwise74/media-api/internal/access"
	"net/http"

	"github.com/gin-gonic/gin"
)

// denyJSON maps a deny reason to the externally visible status. Not-found,
// no-matching-rule and expired all answer 404 so an unauthorized caller
// can't tell a private file from a missing one.
func denyJSON(c *gin.Context, requestID string, dec access.Decision) {
	switch dec.Reason {
	case access.DenyPasswordRequired:
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "A password is required to access this file",
			"requestID": requestID,
		})
	case access.DenyPasswordInvalid:
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Invalid password",
			"requestID": requestID,
		})
	case access.DenyExhausted:
		c.JSON(http.StatusGone, gin.H{
			"error":     "This link is no longer available",
			"requestID": requestID,
		})
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "File not found",
			"requestID": requestID,
		})
	}
}
