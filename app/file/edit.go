package file

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/pkg/middleware"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fileEditOpts struct {
	NewName    *string           `json:"name,omitempty"`
	Visibility *model.Visibility `json:"visibility,omitempty"`

	// Empty string clears the access password, nil leaves it alone
	Password *string `json:"password,omitempty"`

	// Unix ms, 0 clears the expiry
	ExpiresAt *int64 `json:"expires_at,omitempty"`
}

// FileEdit updates mutable metadata. Only the owner or a caller with the
// edit-media capability gets past the gate.
func FileEdit(c *gin.Context, d *internal.Deps) {
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

	var data fileEditOpts
	if err := c.BindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read JSON body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.NewName == nil && data.Visibility == nil && data.Password == nil && data.ExpiresAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No edit options provided",
			"requestID": requestID,
		})
		return
	}

	if data.NewName != nil && *data.NewName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Empty name",
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

	if f.OwnerID != caller.ID && !caller.Caps.EditMedia {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "File not found",
			"requestID": requestID,
		})
		return
	}

	updates := map[string]any{}

	if data.NewName != nil {
		updates["original_name"] = *data.NewName
	}

	if data.Password != nil {
		if *data.Password == "" {
			updates["access_password"] = ""
		} else {
			hash, err := d.Argon.GenerateFromPassword(*data.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to hash access password", zap.Error(err), zap.String("requestID", requestID))
				return
			}

			updates["access_password"] = hash
		}
	}

	if data.ExpiresAt != nil {
		if *data.ExpiresAt == 0 {
			updates["expires_at"] = nil
		} else if *data.ExpiresAt <= time.Now().UnixMilli() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "expires_at must be a future unix millisecond timestamp",
				"requestID": requestID,
			})
			return
		} else {
			updates["expires_at"] = *data.ExpiresAt
		}
	}

	if len(updates) > 0 {
		err = d.DB.
			Model(model.File{}).
			Where("id = ?", f.ID).
			Updates(updates).
			Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to update file", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	if data.Visibility != nil {
		dec, err := access.SetVisibility(d.DB, &f, caller, *data.Visibility)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid visibility",
				"requestID": requestID,
			})

			zap.L().Debug("Rejected visibility change", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !dec.Allowed {
			denyJSON(c, requestID, dec)
			return
		}
	}

	err = d.DB.
		Where("id = ?", f.ID).
		First(&f).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to re-fetch file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	service.LogActivity(d.DB, caller.ID, "file_edit", &f.ID, f.OriginalName)

	c.JSON(http.StatusOK, f)
}
