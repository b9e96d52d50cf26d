// Package service holds background and cross-cutting pieces that don't
// belong to a single request path.
package service

import (
	"bitwise74/media-api/internal/model"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LogActivity appends one row to the action ledger. Fire and forget: a
// failed write is logged and never blocks or fails the response that
// triggered it.
func LogActivity(db *gorm.DB, actorID, action string, fileID *uint, details string) {
	entry := model.Activity{
		ActorID:   actorID,
		Action:    action,
		FileID:    fileID,
		Details:   details,
		CreatedAt: time.Now().UnixMilli(),
	}

	go func() {
		if err := db.Create(&entry).Error; err != nil {
			zap.L().Error("Failed to write activity entry",
				zap.String("action", action),
				zap.Error(err),
			)
		}
	}()
}
