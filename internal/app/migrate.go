package app

import (
	"fmt"

	"lostfound/internal/domain/activity"
	"lostfound/internal/domain/auth"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/media"
	"lostfound/internal/domain/notification"
	"lostfound/internal/domain/request"

	"gorm.io/gorm"
)

// Migrate creates or updates every collection table.
func Migrate(db *gorm.DB) error {
	models := []any{
		&auth.User{},
		&notification.Notification{},
		&activity.Activity{},
		&media.Media{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}

	// lost/found items and claim/found requests share a row type each
	for _, k := range []item.Kind{item.KindLost, item.KindFound} {
		if err := db.Table(k.Table()).AutoMigrate(&item.Item{}); err != nil {
			return fmt.Errorf("migrate %s: %w", k.Table(), err)
		}
	}
	for _, k := range []request.Kind{request.KindClaim, request.KindFound} {
		if err := db.Table(k.Table()).AutoMigrate(&request.Request{}); err != nil {
			return fmt.Errorf("migrate %s: %w", k.Table(), err)
		}
	}
	return nil
}
