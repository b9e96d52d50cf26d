package file

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileServe streams a file's bytes for viewing. The counter is bumped only
// after every gate passed, a denied request is never counted.
func FileServe(c *gin.Context, d *internal.Deps) {
	serveContent(c, d, access.ActionView)
}

// FileDownload is FileServe with the download action and an attachment
// disposition. Download rights are independent of view rights.
func FileDownload(c *gin.Context, d *internal.Deps) {
	serveContent(c, d, access.ActionDownload)
}

func serveContent(c *gin.Context, d *internal.Deps, action access.Action) {
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

	dec, err := access.Resolve(d.DB, &f, caller, action)
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

	dec, err = access.CheckFilePassword(d.Argon, &f, caller, c.Query("password"))
	if err != nil {
		zap.L().Error("Failed to verify file password", zap.Error(err), zap.String("requestID", requestID))
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	if action == access.ActionDownload {
		c.Header("Content-Disposition", `attachment; filename="`+f.OriginalName+`"`)
	}

	// Remote backends serve the bytes themselves
	if url := d.Storage.URLFor(f.StorageKey); url != "" {
		recordServe(d, &f, action, caller, requestID)
		c.Redirect(http.StatusFound, url)
		return
	}

	body, err := d.Storage.Get(c.Request.Context(), f.StorageKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open stored blob", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer body.Close()

	// Counted only once the bytes are actually on their way, a request that
	// died on a storage fault is not a view
	recordServe(d, &f, action, caller, requestID)

	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, body, nil)
}

func recordServe(d *internal.Deps, f *model.File, action access.Action, caller access.Caller, requestID string) {
	counter := "views"
	activityAction := "file_view"
	if action == access.ActionDownload {
		counter = "downloads"
		activityAction = "file_download"
	}

	// Plain atomic increment, the file counters have no cap
	err := d.DB.
		Model(model.File{}).
		Where("id = ?", f.ID).
		UpdateColumn(counter, gorm.Expr(counter+" + ?", 1)).
		Error
	if err != nil {
		zap.L().Error("Failed to bump file counter", zap.Error(err), zap.String("requestID", requestID))
	}

	service.LogActivity(d.DB, caller.ID, activityAction, &f.ID, f.OriginalName)
}
