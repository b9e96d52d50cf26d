package file

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileFetch returns a file's metadata. Goes through resolution like any
// other read but never touches the view counter, only served bytes count.
func FileFetch(c *gin.Context, d *internal.Deps) {
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

	dec, err := access.Resolve(d.DB, &f, caller, access.ActionView)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to resolve access", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	c.JSON(http.StatusOK, f)
}
