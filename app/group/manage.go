// Package group holds the administrative handlers around groups and
// memberships. None of it is self-service, everything needs the
// manage-groups capability.
package group

import (
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/groups"
	"bitwise74/media-api/internal/service"
	"bitwise74/media-api/pkg/middleware"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createBody struct {
	Name string `json:"name"`
}

func GroupCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	var data createBody
	if err := c.BindJSON(&data); err != nil || data.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No group name provided",
			"requestID": requestID,
		})
		return
	}

	g, dec, err := groups.Create(d.DB, caller, data.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create group", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "group_create", nil, g.Name)

	c.JSON(http.StatusCreated, g)
}

func GroupDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	groupID, ok := groupIDParam(c, requestID)
	if !ok {
		return
	}

	dec, err := groups.Delete(d.DB, caller, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete group", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "group_delete", nil, c.Param("id"))

	c.Status(http.StatusNoContent)
}

type memberBody struct {
	Role string `json:"role"`
}

func MemberAdd(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	groupID, ok := groupIDParam(c, requestID)
	if !ok {
		return
	}

	accountID := c.Param("accountID")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No account ID provided",
			"requestID": requestID,
		})
		return
	}

	var data memberBody
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Malformed or invalid JSON request body",
				"requestID": requestID,
			})
			return
		}
	}

	dec, err := groups.AddMember(d.DB, caller, groupID, accountID, data.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to add group member", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "group_member_add", nil, accountID)

	c.Status(http.StatusNoContent)
}

func MemberRemove(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	caller := middleware.CallerFrom(c)

	groupID, ok := groupIDParam(c, requestID)
	if !ok {
		return
	}

	accountID := c.Param("accountID")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No account ID provided",
			"requestID": requestID,
		})
		return
	}

	dec, err := groups.RemoveMember(d.DB, caller, groupID, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to remove group member", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !dec.Allowed {
		denyJSON(c, requestID, dec)
		return
	}

	service.LogActivity(d.DB, caller.ID, "group_member_remove", nil, accountID)

	c.Status(http.StatusNoContent)
}

func groupIDParam(c *gin.Context, requestID string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid group ID",
			"requestID": requestID,
		})
		return 0, false
	}

	return uint(id), true
}

func denyJSON(c *gin.Context, requestID string, dec access.Decision) {
	if dec.Reason == access.DenyNotFound {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Group not found",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusForbidden, gin.H{
		"error":     "You don't have permission to manage groups",
		"requestID": requestID,
	})
}
