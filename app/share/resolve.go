package share

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/internal/share"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type resolveBody struct {
	Password string `json:"password"`
}

// ShareResolve validates a token without consuming a view. Clients call
// this first so a password prompt can be shown before anything counts
// against the view cap.
func ShareResolve(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No token provided",
			"requestID": requestID,
		})
		return
	}

	var data resolveBody
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Malformed or invalid JSON request body",
				"requestID": requestID,
			})
			return
		}
	}

	link, dec, err := share.Validate(d.DB, d.Argon, token, data.Password)
	if err != nil {
		zap.L().Error("Failed to validate share token", zap.Error(err), zap.String("requestID", requestID))
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	f, ok := fetchLinkedFile(c, d, requestID, link)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":         f.OriginalName,
		"content_type": f.ContentType,
		"size":         f.Size,
	})
}

// ShareServe validates, consumes exactly one view and streams the bytes.
// The conditional increment runs before any byte leaves, whoever loses the
// race on the last view gets 410 and no content.
func ShareServe(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No token provided",
			"requestID": requestID,
		})
		return
	}

	link, dec, err := share.Validate(d.DB, d.Argon, token, c.Query("password"))
	if err != nil {
		zap.L().Error("Failed to validate share token", zap.Error(err), zap.String("requestID", requestID))
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	f, ok := fetchLinkedFile(c, d, requestID, link)
	if !ok {
		return
	}

	dec, err = share.RecordAccess(d.DB, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to record share access", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, "", "share_access", &f.ID, token)

	if url := d.Storage.URLFor(f.StorageKey); url != "" {
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

	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, body, nil)
}

func fetchLinkedFile(c *gin.Context, d *internal.Deps, requestID string, link *model.ShareLink) (*model.File, bool) {
	var f model.File

	err := d.DB.
		Where("id = ?", link.FileID).
		First(&f).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Deletes cascade, so this only happens if the link won a race
			// against its file's removal
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Link not found",
				"requestID": requestID,
			})
			return nil, false
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch linked file", zap.Error(err), zap.String("requestID", requestID))
		return nil, false
	}

	return &f, true
}
