// Package db opens the database selected in the config
package db

import (
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/pkg/util"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	dsn := viper.GetString("database.dsn")

	switch driver := viper.GetString("database.driver"); driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be
		// created. The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(dsn); err != nil {
				if err == os.ErrNotExist {
					return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
				}
			}
		}

		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(
		model.Account{},
		model.File{},
		model.PermissionGrant{},
		model.Group{},
		model.GroupMember{},
		model.ShareLink{},
		model.Activity{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
