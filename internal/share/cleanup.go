package share

import (
	"bitwise74/media-api/internal/model"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Cleanup periodically deletes share links whose expiry has passed. Expired
// links are already unservable through Validate, this only keeps the table
// from growing forever.
func Cleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Share link cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			res := db.
				Where("expires_at IS NOT NULL AND expires_at < ?", time.Now().UnixMilli()).
				Delete(model.ShareLink{})
			if res.Error != nil {
				zap.L().Error("Failed to clean up expired share links", zap.Error(res.Error))
				continue
			}

			if res.RowsAffected > 0 {
				zap.L().Debug("Cleaned up expired share links", zap.Int64("count", res.RowsAffected))
			}
		}
	}()
}
