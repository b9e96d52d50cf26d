package middleware

import (
	"bitwise74/media-api/internal/model"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewJWTMiddleware rejects requests without a valid auth_token cookie.
// On success the account's id and role land in the gin context.
func NewJWTMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		userID, role, ok := resolveIdentity(c, d, requestID)
		if !ok {
			return
		}

		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// NewOptionalJWTMiddleware resolves the caller when a cookie is present but
// lets anonymous requests through. Used on endpoints where public files are
// reachable without an account.
func NewOptionalJWTMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := c.Cookie("auth_token"); err != nil {
			c.Next()
			return
		}

		requestID := c.MustGet("requestID").(string)

		userID, role, ok := resolveIdentity(c, d, requestID)
		if !ok {
			return
		}

		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, d *gorm.DB, requestID string) (userID, role string, ok bool) {
	tokenStr, err := c.Cookie("auth_token")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "No auth_token cookie",
			"requestID": requestID,
		})
		return "", "", false
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("jwt.secret")), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "token_invalid",
			"requestID": requestID,
		})
		return "", "", false
	}

	claims, claimsOK := token.Claims.(jwt.MapClaims)
	if !claimsOK {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "token_invalid",
			"requestID": requestID,
		})
		return "", "", false
	}

	userID, idOK := claims["user_id"].(string)
	if !idOK {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "token_invalid",
			"requestID": requestID,
		})
		return "", "", false
	}

	exp, expOK := claims["exp"].(float64)
	if !expOK || time.Now().Unix() >= int64(exp) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "token_expired",
			"requestID": requestID,
		})
		return "", "", false
	}

	// The role comes from the database rather than the claims so a role
	// change takes effect without waiting for the token to expire
	var account model.Account

	err = d.Where("id = ?", userID).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "user_not_found",
				"requestID": requestID,
			})
			return "", "", false
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "internal_server_error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
		return "", "", false
	}

	return account.ID, account.Role, true
}
