package file

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileDelete removes a file, its grants and its share links in one
// transaction so no grant or link can outlive the record it points at.
// The blob is deleted after the transaction commits, a dangling blob is
// recoverable garbage while a dangling share link is an access hole.
func FileDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	fileID := c.Param("id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "ID is missing",
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

		zap.L().Error("Failed to check if file exists", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if f.OwnerID != caller.ID && !caller.Caps.ManageMedia {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "File not found",
			"requestID": requestID,
		})
		return
	}

	if err := service.PurgeFile(d.DB, &f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.Storage.Delete(c.Request.Context(), f.StorageKey); err != nil {
		zap.L().Error("Failed to delete stored blob", zap.Error(err), zap.String("requestID", requestID))
	}

	service.LogActivity(d.DB, caller.ID, "file_delete", &f.ID, f.OriginalName)

	c.Status(http.StatusNoContent)
}
