// Package share holds the handlers around share links, the only access
// path that bypasses identity resolution.
package share

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/internal/share"
	"bitwise74/media-api/pkg/middleware"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShareCreate issues a new link for a file the caller may share.
func ShareCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	fileID := c.Param("id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	var opts share.CreateOpts
	if err := c.BindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read JSON body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if opts.ExpiresAt != nil && *opts.ExpiresAt <= time.Now().UnixMilli() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "expires_at must be a future unix millisecond timestamp",
			"requestID": requestID,
		})
		return
	}

	var f model.File

	err := d.DB.
		Where("id = ?", fileID).
		First(&f).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "File not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch file from db", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	link, dec, err := share.Create(d.DB, d.Argon, &f, caller, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})

		zap.L().Debug("Rejected share creation", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "share_create", &f.ID, link.Token)

	c.JSON(http.StatusCreated, gin.H{
		"id":         link.ID,
		"token":      link.Token,
		"url":        share.URLFor(link.Token),
		"expires_at": link.ExpiresAt,
		"max_views":  link.MaxViews,
	})
}
