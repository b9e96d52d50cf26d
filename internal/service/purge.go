package service

import (
	"bitwise74/media-api/internal/model"
	"fmt"

	"gorm.io/gorm"
)

// PurgeFile deletes a file record together with every grant and share link
// pointing at it, in one transaction. Either all three tables lose their
// rows or none do, a grant or link must never outlive its file.
func PurgeFile(db *gorm.DB, f *model.File) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", f.ID).Delete(model.PermissionGrant{}).Error; err != nil {
			return err
		}

		if err := tx.Where("file_id = ?", f.ID).Delete(model.ShareLink{}).Error; err != nil {
			return err
		}

		return tx.Delete(f).Error
	})
	if err != nil {
		return fmt.Errorf("failed to purge file, %w", err)
	}

	return nil
}
