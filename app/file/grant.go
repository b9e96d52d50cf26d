package file

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileGrant upserts an explicit access rule. The caller needs canShare on
// the file or the edit-media capability, granting is never a way to give
// yourself rights you don't hold.
func FileGrant(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	f, ok := fetchForGrant(c, d, requestID)
	if !ok {
		return
	}

	var spec access.GrantSpec
	if err := c.BindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read JSON body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	grant, dec, err := access.Grant(d.DB, f, caller, spec)
	if err != nil {
		if errors.Is(err, access.ErrInvalidGrantSpec) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save grant", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "grant_create", &f.ID, f.OriginalName)

	c.JSON(http.StatusOK, grant)
}

type revokeBody struct {
	GranteeAccountID *string `json:"grantee_account_id,omitempty"`
	GranteeGroupID   *uint   `json:"grantee_group_id,omitempty"`
}

// FileRevoke removes an explicit access rule.
func FileRevoke(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	f, ok := fetchForGrant(c, d, requestID)
	if !ok {
		return
	}

	var data revokeBody
	if err := c.BindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read JSON body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	dec, err := access.Revoke(d.DB, f, caller, data.GranteeAccountID, data.GranteeGroupID)
	if err != nil {
		if errors.Is(err, access.ErrInvalidGrantSpec) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to revoke grant", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "grant_revoke", &f.ID, f.OriginalName)

	c.Status(http.StatusNoContent)
}

func fetchForGrant(c *gin.Context, d *internal.Deps, requestID string) (*model.File, bool) {
	fileID := c.Param("id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return nil, false
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
			return nil, false
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch file from db", zap.Error(err), zap.String("requestID", requestID))
		return nil, false
	}

	return &f, true
}
