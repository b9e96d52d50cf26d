package share

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/internal/share"
	"bitwise74/media-api/pkg/middleware"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShareRevoke hard-deletes a link. Creator or media manager only, and
// immediately terminal.
func ShareRevoke(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	linkID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid link ID",
			"requestID": requestID,
		})
		return
	}

	dec, err := share.Revoke(d.DB, uint(linkID), caller)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to revoke share link", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "share_revoke", nil, c.Param("id"))

	c.Status(http.StatusNoContent)
}
