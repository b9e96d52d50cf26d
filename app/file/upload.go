package file

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/pkg/util"
	"bitwise74/media-api/pkg/validators"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func FileUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	status, f, contentType, err := validators.FileValidator(fh)
	if err != nil {
		c.JSON(status, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})

		zap.L().Debug("Rejected upload", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	visibility := model.VisibilityPrivate
	switch v := model.Visibility(c.PostForm("visibility")); v {
	case model.VisibilityPublic, model.VisibilityGroup:
		visibility = v
	case "", model.VisibilityPrivate:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid visibility",
			"requestID": requestID,
		})
		return
	}

	var accessPassword string
	if p := c.PostForm("password"); p != "" {
		accessPassword, err = d.Argon.GenerateFromPassword(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to hash access password", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	var expiresAt *int64
	if e := c.PostForm("expires_at"); e != "" {
		ms, err := strconv.ParseInt(e, 10, 64)
		if err != nil || ms <= time.Now().UnixMilli() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "expires_at must be a future unix millisecond timestamp",
				"requestID": requestID,
			})
			return
		}
		expiresAt = &ms
	}

	key := util.RandStr(16)

	err = d.Storage.Put(c.Request.Context(), key, f, fh.Size, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	record := model.File{
		OwnerID:        userID,
		StorageKey:     key,
		StorageBackend: d.Storage.Backend(),
		OriginalName:   fh.Filename,
		ContentType:    contentType,
		Size:           fh.Size,
		Visibility:     visibility,
		AccessPassword: accessPassword,
		CreatedAt:      time.Now().UnixMilli(),
		ExpiresAt:      expiresAt,
	}

	if err := d.DB.Create(&record).Error; err != nil {
		// Don't leave orphaned bytes behind if the record never made it
		if derr := d.Storage.Delete(c.Request.Context(), key); derr != nil {
			zap.L().Error("Failed to clean up stored blob", zap.Error(derr), zap.String("requestID", requestID))
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create file record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	service.LogActivity(d.DB, userID, "file_upload", &record.ID, record.OriginalName)

	c.JSON(http.StatusCreated, record)
}
