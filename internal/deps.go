package internal

import (
	"bitwise74/media-api/pkg/security"
	"bitwise74/media-api/storage"

	"gorm.io/gorm"
)

type Deps struct {
	DB      *gorm.DB
	Argon   *security.ArgonHash
	Storage storage.Storage
}
