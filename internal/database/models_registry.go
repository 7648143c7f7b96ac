package database

import "reservo/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Business{},
		&models.ModerationRequest{},
		&models.SystemNotification{},
	}
}
